package orm

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"strings"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/model"
)

type builder struct {
	core
	sb       strings.Builder // sb is used to build the SQL query string.
	bindings []Binding       // bindings 与 sb 中的 @Name 一一对应
	args     []any           // args 调用者传入的位置参数
	model    *model.Model    // model is the model associated with the builder.
}

// reset 让 Build 可以重复调用，中间件里面也会调用 Build
func (b *builder) reset() {
	b.sb.Reset()
	b.bindings = nil
	b.args = nil
}

// bind 写入占位符并且登记参数
// 占位符和参数只能在这里一起产生，所以两者的数量不会对不上
func (b *builder) bind(name string, val any) {
	b.sb.WriteByte('@')
	b.sb.WriteString(name)
	b.bindings = append(b.bindings, Binding{Name: name, Value: bindValue(val)})
}

// addArgs 处理调用者在 WHERE 部分传入的参数
// sql.NamedArg 对应 WHERE 里面的 @Name，其它的原样交给驱动
func (b *builder) addArgs(args []any) error {
	for _, arg := range args {
		na, ok := arg.(sql.NamedArg)
		if !ok {
			b.args = append(b.args, arg)
			continue
		}
		if b.bound(na.Name) {
			return errs.NewErrDuplicateBinding(na.Name)
		}
		b.bindings = append(b.bindings, Binding{Name: na.Name, Value: bindValue(na.Value)})
	}
	if len(b.args) > 0 && len(b.bindings) > 0 {
		return errs.ErrMixedArgs
	}
	return nil
}

func (b *builder) bound(name string) bool {
	for _, bd := range b.bindings {
		if strings.EqualFold(bd.Name, name) {
			return true
		}
	}
	return false
}

func (b *builder) statement() *Statement {
	return &Statement{
		SQL:      b.sb.String(),
		Bindings: b.bindings,
		Args:     b.args,
	}
}

// writeColumns 写入 c1,c2,c3
func (b *builder) writeColumns(fields []*model.Field) {
	for i, fd := range fields {
		if i > 0 {
			b.sb.WriteByte(',')
		}
		b.sb.WriteString(fd.ColName)
	}
}

// skipOnInsert INSERT 和批量写入共用的跳过规则
// 主键永远跳过，default_key 只有在值缺失的时候跳过，0 和 "" 不算缺失
func skipOnInsert(fd *model.Field, val any) bool {
	if fd.Markers.Has(model.Ignore) || fd.Markers.Has(model.PrimaryKey) {
		return true
	}
	return fd.Markers.Has(model.DefaultKey) && model.IsNull(val)
}

// bindValue 缺失的值统一变成 nil，非 nil 的指针解引用
// driver.Valuer 原样交给驱动
func bindValue(val any) any {
	if model.IsNull(val) {
		return nil
	}
	if _, ok := val.(driver.Valuer); ok {
		return val
	}
	rv := reflect.ValueOf(val)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
		if v, ok := rv.Interface().(driver.Valuer); ok {
			return v
		}
	}
	return rv.Interface()
}

// driverValue 与 bindValue 相同，但是会把 driver.Valuer 展开
// 批量写入的时候各个驱动对 Valuer 的支持不一样，所以统一展开
func driverValue(val any) (any, error) {
	v := bindValue(val)
	if dv, ok := v.(driver.Valuer); ok {
		return dv.Value()
	}
	return v, nil
}
