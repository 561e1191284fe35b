package orm

import (
	"context"

	"github.com/coderi421/rapper/orm/model"
)

// QueryContext 中间件的上下文，冗余了 Builder model 等，是因为还没有执行 sql 前，有的中间件，需要使用这些信息
type QueryContext struct {
	// ID 每一次查询都不同，日志和 trace 用它关联起来
	ID string
	// Type 声明查询类型。即 SELECT, UPDATE, INSERT, BULK 和 RAW
	Type string

	// builder 使用的时候，大多数情况下你需要转换到具体的类型
	// 才能篡改查询。BULK 的时候为 nil
	Builder QueryBuilder
	// Bulk 只有 BULK 的时候才有
	Bulk BulkBuilder
	// qc.Model.TableName 为了有的中间件在拦截时需要 Model 信息
	// 所以需要冗余一份在 middleware 的上下文中
	Model *model.Model
	// Table 实际使用的表名，可能是调用者显式指定的
	Table string
}

type QueryResult struct {
	// Result 在不同的查询里面，类型是不同的
	// Selector.Get 和 GetMulti 里面，这会是 []*T
	// 其它情况下，它会是 Result 类型
	Result any
	Err    error
}

type Middleware func(next Handler) Handler

type Handler func(ctx context.Context, qc *QueryContext) *QueryResult
