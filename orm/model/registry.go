package model

import (
	"reflect"
	"strings"
	"sync"

	"github.com/coderi421/rapper/orm/internal/errs"
)

type Registry interface {
	Get(val any) (*Model, error)
	Register(val any, opts ...Option) (*Model, error)
}

// RegistryOption 配置 registry 本身，例如命名策略
type RegistryOption func(r *registry)

// WithNaming 替换默认的命名策略
func WithNaming(n Naming) RegistryOption {
	return func(r *registry) {
		r.naming = n
	}
}

// 这种包变量对测试不友好，缺乏隔离
//
//	var defaultRegistry = &registry{
//		models: make(map[reflect.Type]*model, 16),
//	}
type registry struct {
	// reflect.Type 可以解决命名冲突的问题，sync.Map 解决并发安全
	models sync.Map
	naming Naming
}

func NewRegistry(opts ...RegistryOption) Registry {
	r := &registry{
		naming: Plural,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get 查找元数据模型
// 同一个类型多次调用返回的是同一个 *Model，字段顺序和标记都不会变
func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)

	m, ok := r.models.Load(typ)
	if ok {
		return m.(*Model), nil
	}

	parsed, err := r.parseModel(val)
	if err != nil {
		return nil, err
	}
	// 并发解析同一个类型的时候，以先存进去的为准
	m, _ = r.models.LoadOrStore(typ, parsed)
	return m.(*Model), nil
}

// Register registers a model in the registry with the given options.
// It parses the model, applies the options, validates the result and stores it,
// replacing whatever was cached for the type before.
func (r *registry) Register(val any, opts ...Option) (*Model, error) {
	m, err := r.parseModel(val, opts...)
	if err != nil {
		return nil, err
	}

	r.models.Store(reflect.TypeOf(val), m)
	return m, nil
}

// parseModel parses a given value and returns a new model or an error.
// It checks if the type is a pointer to a struct and collects, in declaration
// order, every exported field that is not tagged orm:"-".
// orm:"column=LogId,primary_key"
func (r *registry) parseModel(val any, opts ...Option) (*Model, error) {
	typ := reflect.TypeOf(val)

	// Only support one-level pointer as input, e.g. *User does not support **User and User
	if typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	typ = typ.Elem()

	numField := typ.NumField()
	fields := make([]*Field, 0, numField)
	fds := make(map[string]*Field, numField)

	for i := 0; i < numField; i++ {
		fdStruct := typ.Field(i)
		if !fdStruct.IsExported() {
			continue
		}
		if fdStruct.Tag.Get(tagORMName) == "-" {
			continue
		}

		tags, err := r.parseTag(fdStruct.Tag)
		if err != nil {
			return nil, err
		}

		colName := tags[tagKeyColumn]
		if colName == "" {
			colName = r.naming.ColumnName(fdStruct.Name)
		}

		var markers Marker
		if _, ok := tags[tagKeyPrimaryKey]; ok {
			markers |= PrimaryKey
		}
		if _, ok := tags[tagKeyDefaultKey]; ok {
			markers |= DefaultKey
		}
		if _, ok := tags[tagKeyIgnore]; ok {
			markers |= Ignore
		}

		f := &Field{
			ColName: colName,
			GoName:  fdStruct.Name,
			Type:    fdStruct.Type,
			Index:   i,
			Offset:  fdStruct.Offset,
			Markers: markers,
		}
		fields = append(fields, f)
		fds[fdStruct.Name] = f
	}

	if len(fields) == 0 {
		return nil, errs.ErrNoUsableFields
	}

	// Get the table name from the input value if it implements TableName interface
	var tableName string
	if tn, ok := val.(TableName); ok {
		tableName = tn.TableName()
	}
	if tableName == "" {
		tableName = r.naming.TableName(typ.Name())
	}

	m := &Model{
		TableName: tableName,
		Fields:    fields,
		FieldMap:  fds,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	// 选项可能改了列名，所以最后再建 ColumnMap
	colMap := make(map[string]*Field, len(fields))
	for _, fd := range fields {
		if fd.Markers.Has(DefaultKey) && !Nullable(fd.Type) {
			return nil, errs.NewErrDefaultKeyNotNullable(fd.GoName)
		}
		colMap[strings.ToLower(fd.ColName)] = fd
	}
	m.ColumnMap = colMap
	return m, nil
}

// parseTag parses the given struct tag and returns a map of key-value pairs.
// Flags such as primary_key carry no value and map to "".
// If the tag is empty, it returns an empty map and no error.
func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag := tag.Get(tagORMName)
	if ormTag == "" {
		// Return an empty map so that the caller doesn't need to check for nil
		return map[string]string{}, nil
	}

	pairs := strings.Split(ormTag, ",")
	res := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		kv := strings.Split(strings.TrimSpace(pair), "=")
		key := kv[0]
		switch key {
		case tagKeyColumn:
			if len(kv) != 2 || kv[1] == "" {
				return nil, errs.NewErrInvalidTagContent(pair)
			}
			res[key] = kv[1]
		case tagKeyPrimaryKey, tagKeyDefaultKey, tagKeyIgnore:
			if len(kv) != 1 {
				return nil, errs.NewErrInvalidTagContent(pair)
			}
			res[key] = ""
		case "":
			return nil, errs.NewErrInvalidTagContent(pair)
		default:
			return nil, errs.NewErrUnknownTagKey(key)
		}
	}

	return res, nil
}

// WithTableName is a Option function that sets the table name for a Model.
func WithTableName(tableName string) Option {
	return func(model *Model) error {
		model.TableName = tableName
		return nil
	}
}

// WithColumnName is a function that returns a Option function, which can be used to set the column name for a specific Field in a model.
func WithColumnName(field, columnName string) Option {
	return func(model *Model) error {
		fd, ok := model.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}
		fd.ColName = columnName
		return nil
	}
}

// WithPrimaryKey 声明式地给字段加上主键标记，效果等同于 orm:"primary_key"
func WithPrimaryKey(field string) Option {
	return withMarker(field, PrimaryKey)
}

// WithDefaultKey 等同于 orm:"default_key"
func WithDefaultKey(field string) Option {
	return withMarker(field, DefaultKey)
}

// WithIgnore 等同于 orm:"ignore"
func WithIgnore(field string) Option {
	return withMarker(field, Ignore)
}

func withMarker(field string, marker Marker) Option {
	return func(model *Model) error {
		fd, ok := model.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}
		fd.Markers |= marker
		return nil
	}
}
