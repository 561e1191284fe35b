package unsafe

import (
	"database/sql"
	"reflect"
	"unsafe"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/internal/valuer"
	"github.com/coderi421/rapper/orm/model"
)

type unsafeValue struct {
	addr unsafe.Pointer // 使用 unsafe Pointer 而不是 uintptr 是因为 gc 后 uintptr 会发生变化
	meta *model.Model
}

var _ valuer.Creator = NewUnsafeValue

func NewUnsafeValue(val any, meta *model.Model) valuer.Value {
	return unsafeValue{
		addr: unsafe.Pointer(reflect.ValueOf(val).Pointer()),
		meta: meta,
	}
}

func (u unsafeValue) Field(name string) (any, error) {
	fd, ok := u.meta.FieldMap[name]
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	return u.field(fd).Interface(), nil
}

func (u unsafeValue) SetColumns(rows *sql.Rows) error {
	return valuer.ScanRow(rows, u.meta, u.field)
}

func (u unsafeValue) Materialize(columns []string, values []any) error {
	return valuer.Materialize(u.meta, columns, values, u.field)
}

// field 起始地址 + 偏移量 = 字段地址
func (u unsafeValue) field(fd *model.Field) reflect.Value {
	ptr := unsafe.Pointer(uintptr(u.addr) + fd.Offset)
	return reflect.NewAt(fd.Type, ptr).Elem()
}
