package querylog

import (
	"context"
	"fmt"
	"log"

	"github.com/coderi421/rapper/orm"
)

type MiddlewareBuilder struct {
	logFunc func(query string, args []any)
}

func NewBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logFunc: func(query string, args []any) {
			log.Printf("sql: %s, args: %v \n", query, args)
		},
	}
}

// LogFunc 替换默认的 log.Printf
func (m *MiddlewareBuilder) LogFunc(fn func(query string, args []any)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			// 批量写入没有 SQL，只记录表、列和行数
			if qc.Bulk != nil {
				buf, err := qc.Bulk.BuildBuffer()
				if err != nil {
					return &orm.QueryResult{Err: err}
				}
				m.log(fmt.Sprintf("BULK INSERT %s %v", buf.Table, buf.Columns), []any{len(buf.Rows)})
				return next(ctx, qc)
			}

			st, err := qc.Builder.Build()
			if err != nil {
				// 构造失败的语句不会执行，也不用记录
				return &orm.QueryResult{Err: err}
			}
			m.log(st.SQL, args(st))
			return next(ctx, qc)
		}
	}
}

func (m *MiddlewareBuilder) log(query string, args []any) {
	if m.logFunc == nil {
		return
	}
	m.logFunc(query, args)
}

// args 命名参数按照出现的顺序输出值
func args(st *orm.Statement) []any {
	if len(st.Bindings) == 0 {
		return st.Args
	}
	res := make([]any, 0, len(st.Bindings))
	for _, b := range st.Bindings {
		res = append(res, b.Value)
	}
	return res
}
