package orm

import (
	"context"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/model"
	"github.com/google/uuid"
)

type Updater[T any] struct {
	builder
	sess  Session
	table string
	val   *T // 更新用的结构体
	where string
	wArgs []any
}

func NewUpdater[T any](sess Session) *Updater[T] {
	return &Updater[T]{
		builder: builder{
			core: sess.getCore(),
		},
		sess: sess,
	}
}

// Table 显式指定表名
func (u *Updater[T]) Table(table string) *Updater[T] {
	u.table = table
	return u
}

// Update 只有值不缺失的字段才会出现在 SET 里面
// 缺失的字段保持数据库里面原来的值
func (u *Updater[T]) Update(t *T) *Updater[T] {
	u.val = t
	return u
}

// Where 带上 WHERE 关键字，原样拼接；不调用的话使用主键作为条件
func (u *Updater[T]) Where(clause string, args ...any) *Updater[T] {
	u.where = clause
	u.wArgs = args
	return u
}

// Build UPDATE Logs SET Message = @Message WHERE LogId = @LogId
// 既没有 WHERE 也没有主键的时候返回错误，而不是更新整张表
func (u *Updater[T]) Build() (*Statement, error) {
	u.reset()
	if u.val == nil {
		return nil, errs.ErrNilRecord
	}
	var err error
	// 创建映射实体类
	u.model, err = u.r.Get(u.val)
	if err != nil {
		return nil, err
	}

	val := u.valCreator(u.val, u.model)
	var (
		pk    *model.Field
		pkVal any
	)
	sets := make([]*model.Field, 0, len(u.model.Fields))
	values := make([]any, 0, len(u.model.Fields))
	for _, fd := range u.model.Fields {
		if fd.Markers.Has(model.Ignore) {
			continue
		}
		v, err := val.Field(fd.GoName)
		if err != nil {
			return nil, err
		}
		if fd.Markers.Has(model.PrimaryKey) {
			if pk == nil {
				pk, pkVal = fd, v
			}
			continue
		}
		if model.IsNull(v) {
			continue
		}
		sets = append(sets, fd)
		values = append(values, v)
	}

	if u.where == "" && (pk == nil || model.IsNull(pkVal)) {
		return nil, errs.ErrNoWhereClause
	}
	if len(sets) == 0 {
		return nil, errs.ErrNoUpdatedColumns
	}

	u.sb.WriteString("UPDATE ")
	u.sb.WriteString(model.ResolveTable(u.model, u.table))
	u.sb.WriteString(" SET ")
	for i, fd := range sets {
		if i > 0 {
			u.sb.WriteByte(',')
		}
		u.sb.WriteString(fd.ColName)
		u.sb.WriteString(" = ")
		u.bind(fd.ColName, values[i])
	}

	if u.where != "" {
		u.sb.WriteByte(' ')
		u.sb.WriteString(u.where)
		if err = u.addArgs(u.wArgs); err != nil {
			return nil, err
		}
	} else {
		u.sb.WriteString(" WHERE ")
		u.sb.WriteString(pk.ColName)
		u.sb.WriteString(" = ")
		u.bind(pk.ColName, pkVal)
	}
	return u.statement(), nil
}

func (u *Updater[T]) Exec(ctx context.Context) Result {
	m, err := u.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	return exec(ctx, u.sess, u.core, &QueryContext{
		ID:      uuid.NewString(),
		Type:    "UPDATE",
		Builder: u,
		Model:   m,
		Table:   model.ResolveTable(m, u.table),
	})
}
