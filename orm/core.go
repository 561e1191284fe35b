package orm

import (
	"context"
	"time"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/internal/valuer"
	"github.com/coderi421/rapper/orm/model"
)

type core struct {
	dialect    Dialect
	r          model.Registry // 存储数据库表和 struct 映射关系的实例
	valCreator valuer.Creator // 与DB交互映射的实现
	mdls       []Middleware
	binder     *binder
	logger     FailureLogger
	// cmdTimeout 每一次和数据库交互的超时时间
	cmdTimeout time.Duration
}

// withTimeout 调用者的 ctx 已经有更短的 deadline 时，以调用者为准
func (c core) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cmdTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cmdTimeout)
}

// logFailure 日志本身失败了也不会影响调用者
func (c core) logFailure(msg string, err error) {
	if c.logger == nil {
		return
	}
	_ = c.logger.Log(msg, err)
}

// transportErr 包装驱动的错误并且记录下来
func (c core) transportErr(qc *QueryContext, err error) error {
	err = errs.NewErrTransport(qc.Type, err)
	msg := "Failed to Write to Sql."
	switch qc.Type {
	case "SELECT", "RAW":
		msg = "Failed to Read Sql."
	case "BULK":
		msg = "Failed to Bulk Copy to Sql."
	}
	c.logFailure(msg+" "+qc.Table, err)
	return err
}

// chain 把中间件包在 root 外面，第一个中间件在最外层
func (c core) chain(root Handler) Handler {
	for i := len(c.mdls) - 1; i >= 0; i-- {
		root = c.mdls[i](root)
	}
	return root
}

// statement 构造 SQL 并且交给方言转换成驱动能执行的形式
func (c core) statement(qc *QueryContext) (string, []any, error) {
	st, err := qc.Builder.Build()
	if err != nil {
		return "", nil, err
	}
	if st.SQL == "" {
		return "", nil, errs.ErrEmptyStatement
	}
	return c.binder.args(c.dialect, st)
}

func getMulti[T any](ctx context.Context, sess Session, c core, qc *QueryContext, limit int) *QueryResult {
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getMultiHandler[T](ctx, sess, c, qc, limit)
	}
	return c.chain(root)(ctx, qc)
}

// getMultiHandler limit 为 0 表示读取所有的行
func getMultiHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext, limit int) *QueryResult {
	query, args, err := c.statement(qc)
	if err != nil {
		return &QueryResult{Err: err}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	rows, err := sess.queryContext(ctx, query, args...)
	if err != nil {
		return &QueryResult{Err: c.transportErr(qc, err)}
	}
	defer func() {
		_ = rows.Close()
	}()

	res := make([]*T, 0, 8)
	for rows.Next() {
		// 每一行都用新的实例和新的 Value，行之间不共享任何状态
		tp := new(T)
		val := c.valCreator(tp, qc.Model)
		if err = val.SetColumns(rows.Rows); err != nil {
			return &QueryResult{Err: err}
		}
		res = append(res, tp)
		if limit > 0 && len(res) >= limit {
			break
		}
	}
	if err = rows.Err(); err != nil {
		return &QueryResult{Err: c.transportErr(qc, err)}
	}
	return &QueryResult{Result: res}
}

// get 读取第一行，没有数据返回 ErrNoRows
func get[T any](ctx context.Context, sess Session, c core, qc *QueryContext) (*T, error) {
	res := getMulti[T](ctx, sess, c, qc, 1)
	if res.Err != nil {
		return nil, res.Err
	}
	ts, _ := res.Result.([]*T)
	if len(ts) == 0 {
		return nil, ErrNoRows
	}
	return ts[0], nil
}

func multi[T any](ctx context.Context, sess Session, c core, qc *QueryContext) ([]*T, error) {
	res := getMulti[T](ctx, sess, c, qc, 0)
	if res.Err != nil {
		return nil, res.Err
	}
	ts, _ := res.Result.([]*T)
	return ts, nil
}

func exec(ctx context.Context, sess Session, c core, qc *QueryContext) Result {
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return execHandler(ctx, sess, c, qc)
	}
	return toResult(c.chain(root)(ctx, qc))
}

func toResult(res *QueryResult) Result {
	var r Result
	if res.Result != nil {
		r, _ = res.Result.(Result)
	}
	r.err = res.Err
	return r
}

func execHandler(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	query, args, err := c.statement(qc)
	if err != nil {
		return &QueryResult{Err: err}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := sess.execContext(ctx, query, args...)
	if err != nil {
		return &QueryResult{Err: c.transportErr(qc, err)}
	}
	return &QueryResult{Result: Result{res: res}}
}
