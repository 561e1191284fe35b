package valuer

import (
	"database/sql"
	"reflect"
	"strconv"
	"strings"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/model"
)

// Value 是对结构体实例的内部抽象
// 读操作用它把结果集写回结构体，写操作用它读取字段的当前值
type Value interface {
	// Field 返回字段的当前值，name 是 Go 字段名
	Field(name string) (any, error)
	// SetColumns 把 rows 当前行的数据设置到结构体上
	SetColumns(rows *sql.Rows) error
	// Materialize 与 SetColumns 一样，只是数据已经读出来了
	Materialize(columns []string, values []any) error
}

// Creator 本质上也可以看所是 factory 模式，极其简单的 factory 模式
type Creator func(val any, meta *model.Model) Value

// FieldFunc 返回字段对应的、可以 Set 的 reflect.Value
// 反射和 unsafe 两种实现只在这一步不同
type FieldFunc func(fd *model.Field) reflect.Value

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// ScanRow 读取 rows 的当前行
// 列名和字段名大小写不敏感地匹配；结构体里没有的列直接丢弃；
// 结果集里没有的字段保持零值；NULL 被转换成字段类型的零值
func ScanRow(rows *sql.Rows, meta *model.Model, fieldOf FieldFunc) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	// colValues 中放的是 **T，database/sql 遇到 NULL 会把 *T 置为 nil，
	// 这样 NULL 就不会因为字段不是指针而 Scan 失败
	colValues := make([]any, len(columns))
	holders := make([]reflect.Value, len(columns))
	matched := make([]*model.Field, len(columns))
	for i, name := range columns {
		fd, ok := meta.ColumnMap[strings.ToLower(name)]
		if !ok {
			var discard any
			colValues[i] = &discard
			continue
		}
		holder := reflect.New(reflect.PtrTo(fd.Type))
		colValues[i] = holder.Interface()
		holders[i] = holder
		matched[i] = fd
	}

	if err = rows.Scan(colValues...); err != nil {
		return err
	}

	for i, fd := range matched {
		if fd == nil {
			continue
		}
		dst := fieldOf(fd)
		ptr := holders[i].Elem()
		if ptr.IsNil() {
			dst.Set(reflect.Zero(fd.Type))
			continue
		}
		dst.Set(ptr.Elem())
	}
	return nil
}

// Materialize 把已经读出来的一行数据设置到结构体上，规则与 ScanRow 相同
func Materialize(meta *model.Model, columns []string, values []any, fieldOf FieldFunc) error {
	for i, name := range columns {
		if i >= len(values) {
			break
		}
		fd, ok := meta.ColumnMap[strings.ToLower(name)]
		if !ok {
			continue
		}
		if err := Assign(fieldOf(fd), values[i]); err != nil {
			return errs.NewErrAssignField(fd.GoName, values[i], err)
		}
	}
	return nil
}

// Assign 把 src 赋给 dst，nil 表示 NULL，赋零值
func Assign(dst reflect.Value, src any) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	sv := reflect.ValueOf(src)
	dt := dst.Type()

	if sv.Type().AssignableTo(dt) {
		dst.Set(sv)
		return nil
	}

	// 例如 null.String、sql.NullInt64
	if reflect.PtrTo(dt).Implements(scannerType) && dst.CanAddr() {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}

	if dt.Kind() == reflect.Ptr {
		elem := reflect.New(dt.Elem())
		if err := Assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if sv.Kind() == reflect.Ptr {
		if sv.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		return Assign(dst, sv.Elem().Interface())
	}

	if convertible(sv.Kind(), dt.Kind()) && sv.Type().ConvertibleTo(dt) {
		dst.Set(sv.Convert(dt))
		return nil
	}

	// 文本协议的驱动会把数字当成 []byte 返回
	var text string
	switch s := src.(type) {
	case []byte:
		text = string(s)
	case string:
		text = s
	default:
		return errs.NewErrUnsupportedAssign(dt.String(), src)
	}
	return assignText(dst, text)
}

func assignText(dst reflect.Value, text string) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(text, 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(text, 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	default:
		return errs.NewErrUnsupportedAssign(dst.Type().String(), text)
	}
	return nil
}

// convertible 只允许数字之间、字符串和 []byte 之间的转换
// int -> string 在 Go 里是转成 rune，不是我们想要的
func convertible(src, dst reflect.Kind) bool {
	if src == dst {
		return true
	}
	if isNumber(src) && isNumber(dst) {
		return true
	}
	isText := func(k reflect.Kind) bool { return k == reflect.String || k == reflect.Slice }
	return isText(src) && isText(dst)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
