package orm

import (
	"context"
	"strings"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/google/uuid"
)

// RawQuerier 执行调用者写好的 SQL
// SQL 不会做任何检查，只能使用可信的语句，用户的输入必须通过参数传入
type RawQuerier[T any] struct {
	builder
	sess Session
	sql  string
	args []any
}

// RawQuery 创建一个 RawQuerier 实例
// 泛型参数 T 是目标类型。
// 例如，如果查询 Log 的数据，那么 T 就是 Log
// args 可以是 sql.Named("Name", val)，对应 SQL 里面的 @Name，也可以是驱动原生的参数
func RawQuery[T any](sess Session, query string, args ...any) *RawQuerier[T] {
	return &RawQuerier[T]{
		builder: builder{
			core: sess.getCore(),
		},
		sess: sess,
		sql:  query,
		args: args,
	}
}

func (r *RawQuerier[T]) Build() (*Statement, error) {
	r.reset()
	if strings.TrimSpace(r.sql) == "" {
		return nil, errs.ErrEmptyStatement
	}
	r.sb.WriteString(r.sql)
	if err := r.addArgs(r.args); err != nil {
		return nil, err
	}
	return r.statement(), nil
}

func (r *RawQuerier[T]) Exec(ctx context.Context) Result {
	qc, err := r.queryContext()
	if err != nil {
		return Result{err: err}
	}
	return exec(ctx, r.sess, r.core, qc)
}

func (r *RawQuerier[T]) Get(ctx context.Context) (*T, error) {
	qc, err := r.queryContext()
	if err != nil {
		return nil, err
	}
	return get[T](ctx, r.sess, r.core, qc)
}

func (r *RawQuerier[T]) GetMulti(ctx context.Context) ([]*T, error) {
	qc, err := r.queryContext()
	if err != nil {
		return nil, err
	}
	return multi[T](ctx, r.sess, r.core, qc)
}

// queryContext 获取 model 在中间件中使用
// 空的 SQL 在这里就返回，不会进入中间件
func (r *RawQuerier[T]) queryContext() (*QueryContext, error) {
	if strings.TrimSpace(r.sql) == "" {
		return nil, errs.ErrEmptyStatement
	}
	m, err := r.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	return &QueryContext{
		ID:      uuid.NewString(),
		Type:    "RAW",
		Builder: r,
		Model:   m,
		Table:   m.TableName,
	}, nil
}
