package valuer

import (
	"database/sql"
	"reflect"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/model"
)

// reflectValue 基于反射的 Value
type reflectValue struct {
	val  reflect.Value
	meta *model.Model
}

var _ Creator = NewReflectValue

// NewReflectValue 返回一个封装好的，基于反射实现的 Value
// 输入 val 必须是一个指向结构体实例的指针，而不能是任何其它类型
func NewReflectValue(val any, meta *model.Model) Value {
	return reflectValue{
		val:  reflect.ValueOf(val).Elem(),
		meta: meta,
	}
}

func (r reflectValue) Field(name string) (any, error) {
	fd, ok := r.meta.FieldMap[name]
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	return r.val.Field(fd.Index).Interface(), nil
}

// SetColumns 将数据库中的数据设置到对应的 struct 上
func (r reflectValue) SetColumns(rows *sql.Rows) error {
	return ScanRow(rows, r.meta, r.field)
}

func (r reflectValue) Materialize(columns []string, values []any) error {
	return Materialize(r.meta, columns, values, r.field)
}

func (r reflectValue) field(fd *model.Field) reflect.Value {
	return r.val.Field(fd.Index)
}
