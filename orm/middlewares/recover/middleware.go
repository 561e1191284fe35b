package recover

import (
	"context"
	"fmt"

	"github.com/coderi421/rapper/orm"
)

// MiddlewareBuilder 把 panic 转换成 error，例如驱动或者 Valuer 里面的 panic
type MiddlewareBuilder struct {
	LogFunc func(qc *orm.QueryContext, err any)
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) (res *orm.QueryResult) {
			defer func() {
				if err := recover(); err != nil {
					res = &orm.QueryResult{Err: fmt.Errorf("orm: panic in %s %s: %v", qc.Type, qc.Table, err)}
					// 万一 LogFunc 也panic，那我们也无能为力了
					if m.LogFunc != nil {
						m.LogFunc(qc, err)
					}
				}
			}()
			return next(ctx, qc)
		}
	}
}
