package orm

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

var _ Session = &DB{}

// Session 代表一个抽象的概念，即会话
// 每一次操作都自己获取连接，用完就释放，不支持跨多次调用的事务
type Session interface {
	getCore() core
	queryContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	execContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	// conn 批量写入需要独占一个连接
	conn(ctx context.Context) (*sql.Conn, error)
}
