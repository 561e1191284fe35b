package orm

import (
	"context"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/model"
	"github.com/google/uuid"
)

type Inserter[T any] struct {
	builder
	sess  Session
	table string
	value *T // 要插入的数据
}

func NewInserter[T any](sess Session) *Inserter[T] {
	return &Inserter[T]{
		builder: builder{
			core: sess.getCore(),
		},
		sess: sess,
	}
}

// Into 显式指定表名
func (i *Inserter[T]) Into(table string) *Inserter[T] {
	i.table = table
	return i
}

// Values
//
//	@Description: 将插入数据库中的数据
//	@receiver i
//	@param val
//	@return *Inserter[T]
func (i *Inserter[T]) Values(val *T) *Inserter[T] {
	i.value = val
	return i
}

// Build INSERT INTO Logs (ApplicationId,Message) VALUES (@ApplicationId,@Message)
// 列的顺序就是字段声明的顺序，去掉被跳过的字段
func (i *Inserter[T]) Build() (*Statement, error) {
	i.reset()
	if i.value == nil {
		return nil, errs.ErrInsertZeroRow
	}
	m, err := i.r.Get(i.value)
	if err != nil {
		return nil, err
	}
	i.model = m

	// 由于是泛型，所以这里使用 valuer 取值
	val := i.valCreator(i.value, m)
	fields := make([]*model.Field, 0, len(m.Fields))
	values := make([]any, 0, len(m.Fields))
	for _, fd := range m.Fields {
		v, err := val.Field(fd.GoName)
		if err != nil {
			return nil, err
		}
		if skipOnInsert(fd, v) {
			continue
		}
		fields = append(fields, fd)
		values = append(values, v)
	}
	if len(fields) == 0 {
		return nil, errs.ErrNoInsertColumns
	}

	i.sb.WriteString("INSERT INTO ")
	i.sb.WriteString(model.ResolveTable(m, i.table))
	i.sb.WriteString(" (")
	i.writeColumns(fields)
	i.sb.WriteString(") VALUES (")
	for idx, fd := range fields {
		if idx > 0 {
			i.sb.WriteByte(',')
		}
		i.bind(fd.ColName, values[idx])
	}
	i.sb.WriteByte(')')

	return i.statement(), nil
}

func (i *Inserter[T]) Exec(ctx context.Context) Result {
	m, err := i.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	return exec(ctx, i.sess, i.core, &QueryContext{
		ID:      uuid.NewString(),
		Type:    "INSERT",
		Builder: i,
		Model:   m,
		Table:   model.ResolveTable(m, i.table),
	})
}
