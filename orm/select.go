package orm

import (
	"context"

	"github.com/coderi421/rapper/orm/model"
	"github.com/google/uuid"
)

// Selector represents a query selector that allows building SQL SELECT statements.
// It holds the necessary information to construct the query.
type Selector[T any] struct {
	builder
	sess Session

	table string // table is the name of the table to select from.
	where string // where 调用者写好的 WHERE 子句，原样拼接
	wArgs []any
}

// NewSelector creates a new instance of Selector.
func NewSelector[T any](sess Session) *Selector[T] {
	return &Selector[T]{
		builder: builder{
			core: sess.getCore(),
		},
		sess: sess,
	}
}

// From sets the table name for the selector.
// 没有调用 From 的时候使用 T 推导出来的表名
func (s *Selector[T]) From(tbl string) *Selector[T] {
	s.table = tbl
	return s
}

// Where 追加在 FROM 后面，需要带上 WHERE 关键字，例如
// Where("WHERE ApplicationId = @AppID", sql.Named("AppID", 2))
// 子句不会做任何检查，不要把用户的输入拼接到这里
func (s *Selector[T]) Where(clause string, args ...any) *Selector[T] {
	s.where = clause
	s.wArgs = args
	return s
}

// Build generates a SQL query for selecting all columns from a table.
// It returns the generated query as a *Statement or an error if there was any.
func (s *Selector[T]) Build() (*Statement, error) {
	s.reset()
	var err error
	s.model, err = s.r.Get(new(T))
	if err != nil {
		return nil, err
	}

	s.sb.WriteString("SELECT * FROM ")
	s.sb.WriteString(model.ResolveTable(s.model, s.table))

	// 类似这种可有可无的部分，都要在前面加一个空格
	if s.where != "" {
		s.sb.WriteByte(' ')
		s.sb.WriteString(s.where)
	}
	if err = s.addArgs(s.wArgs); err != nil {
		return nil, err
	}
	return s.statement(), nil
}

// Get 根据拼接成的 sql 文，到 db 中获取第一行数据
func (s *Selector[T]) Get(ctx context.Context) (*T, error) {
	qc, err := s.queryContext()
	if err != nil {
		return nil, err
	}
	return get[T](ctx, s.sess, s.core, qc)
}

func (s *Selector[T]) GetMulti(ctx context.Context) ([]*T, error) {
	qc, err := s.queryContext()
	if err != nil {
		return nil, err
	}
	return multi[T](ctx, s.sess, s.core, qc)
}

func (s *Selector[T]) queryContext() (*QueryContext, error) {
	m, err := s.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	return &QueryContext{
		ID:      uuid.NewString(),
		Type:    "SELECT",
		Builder: s,
		Model:   m,
		Table:   model.ResolveTable(m, s.table),
	}, nil
}
