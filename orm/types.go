package orm

import (
	"context"
	"strings"
)

type Querier[T any] interface {
	// Get retrieves a T object from the database.
	// It takes a context as input and returns a pointer to T and an error.
	Get(ctx context.Context) (*T, error)
	GetMulti(ctx context.Context) ([]*T, error)
}

type Executor interface {
	Exec(ctx context.Context) Result
}

// Binding 一个命名参数，Name 与 SQL 中 @Name 占位符对应
type Binding struct {
	Name  string
	Value any
}

// Statement 构造好的 SQL 和参数，执行一次之后就丢弃
// Bindings 是 @Name 形式的命名参数，由 Dialect 转换成驱动支持的形式
// Args 是调用者直接传入的、驱动原生的位置参数，两者不会同时出现
type Statement struct {
	SQL      string
	Bindings []Binding
	Args     []any
}

// Value 按照名字查找参数，先精确匹配，再忽略大小写匹配
func (s *Statement) Value(name string) (any, bool) {
	for _, b := range s.Bindings {
		if b.Name == name {
			return b.Value, true
		}
	}
	for _, b := range s.Bindings {
		if strings.EqualFold(b.Name, name) {
			return b.Value, true
		}
	}
	return nil, false
}

type QueryBuilder interface {
	Build() (*Statement, error)
}

// BulkBuilder 批量写入不产生 SQL，而是产生一个表格形式的 BulkBuffer
type BulkBuilder interface {
	BuildBuffer() (*BulkBuffer, error)
}
