package model

import (
	"database/sql/driver"
	"reflect"
)

// Option is a function type that modifies a Model.
type Option func(model *Model) error

// Model 结构体映射db后的结构
type Model struct {
	// TableName 结构体对应的表名
	TableName string
	// Fields 按照字段声明的顺序排列，拼接 SQL 的时候必须按这个顺序
	Fields    []*Field
	FieldMap  map[string]*Field // 结构体 属性名 attr name 为 key  LogId
	ColumnMap map[string]*Field // DB column name 转小写后为 key    logid
}

// Field 字段相关的属性
type Field struct {
	ColName string       // 数据库中的字段名
	GoName  string       // go struct 中的名字
	Type    reflect.Type // go 中的数据类型，转换成 reflect.Value 的时候，知道是什么类型，不然那没法转
	// Index 字段在结构体中的下标
	Index int
	// Offset 相对于对象起始地址的字段偏移量
	// uintptr 这个类型的值，只是简单记录一下位置
	Offset  uintptr
	Markers Marker
}

// Marker 字段上的标记，决定字段在写操作中的处理方式
type Marker uint8

const (
	// PrimaryKey 不出现在 INSERT 和 UPDATE 的 SET 里，作为 UPDATE 默认的 WHERE 条件
	PrimaryKey Marker = 1 << iota
	// DefaultKey 值为 NULL 的时候不出现在 INSERT 里，让数据库的默认值生效
	DefaultKey
	// Ignore 永远不写入，只在读取的时候映射
	Ignore
)

func (m Marker) Has(o Marker) bool {
	return m&o != 0
}

func (m Marker) String() string {
	switch {
	case m == 0:
		return ""
	case m.Has(Ignore):
		return "ignore"
	case m.Has(PrimaryKey) && m.Has(DefaultKey):
		return "primary_key,default_key"
	case m.Has(PrimaryKey):
		return "primary_key"
	default:
		return "default_key"
	}
}

// PrimaryKey 返回主键字段，没有的话返回 nil
func (m *Model) PrimaryKey() *Field {
	for _, fd := range m.Fields {
		if fd.Markers.Has(PrimaryKey) && !fd.Markers.Has(Ignore) {
			return fd
		}
	}
	return nil
}

// 我们支持的全部标签上的 key 都放在这里
// 方便用户查找，和我们后期维护
const (
	tagORMName       = "orm"
	tagKeyColumn     = "column"
	tagKeyPrimaryKey = "primary_key"
	tagKeyDefaultKey = "default_key"
	tagKeyIgnore     = "ignore"
)

// TableName 用户实现这个接口来返回自定义的表名
type TableName interface {
	TableName() string
}

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// Nullable reports whether a value of typ can ever be absent.
func Nullable(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return typ.Implements(valuerType)
}

// IsNull 判断一个值是不是"缺失"
// nil 指针、nil 接口、nil slice/map，或者 driver.Valuer 返回 nil（例如 sql.NullString{}）
// 注意：0 和 "" 都不算缺失
func IsNull(val any) bool {
	if val == nil {
		return true
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return true
		}
	}
	if v, ok := val.(driver.Valuer); ok {
		dv, err := v.Value()
		return err == nil && dv == nil
	}
	return false
}
