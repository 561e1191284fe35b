package orm

import (
	"context"
	"database/sql"
	"time"

	"github.com/coderi421/rapper/orm/internal/valuer"
	"github.com/coderi421/rapper/orm/internal/valuer/unsafe"
	"github.com/coderi421/rapper/orm/model"
	"github.com/jmoiron/sqlx"
)

// DefaultCmdTimeout 与数据库交互的默认超时时间
const DefaultCmdTimeout = 30 * time.Second

// 占位符转换结果的缓存大小
const defaultPlanCacheSize = 512

type DBOption func(*DB)

// DB 是 sqlx.DB 的装饰器，并发安全
type DB struct {
	core
	db *sqlx.DB
}

// Open 创建一个 DB 实例。
// 默认情况下，该 DB 将使用 unsafe 实现的 valuer，方言由 driver 推断
func Open(driver string, dsn string, opts ...DBOption) (*DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return OpenDB(db, opts...)
}

// OpenDB 使用已经存在的 sqlx.DB，测试的时候可以传入 sqlmock
func OpenDB(db *sqlx.DB, opts ...DBOption) (*DB, error) {
	res := &DB{
		core: core{
			r:          model.NewRegistry(),
			valCreator: unsafe.NewUnsafeValue,
			logger:     nopLogger{},
			cmdTimeout: DefaultCmdTimeout,
		},
		db: db,
	}
	for _, opt := range opts {
		opt(res)
	}

	if res.dialect == nil {
		d, err := dialectOf(db.DriverName())
		if err != nil {
			return nil, err
		}
		res.dialect = d
	}

	b, err := newBinder(defaultPlanCacheSize)
	if err != nil {
		return nil, err
	}
	res.binder = b
	return res, nil
}

// MustOpen creates a new DB with the provided options.
// If the creation fails, it panics.
func MustOpen(driver string, dsn string, opts ...DBOption) *DB {
	db, err := Open(driver, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// DBWithDialect 驱动名无法推断方言的时候使用，例如自己注册的驱动
func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

// DBUseReflectValuer 使用反射实现的 valuer
func DBUseReflectValuer() DBOption {
	return func(db *DB) {
		db.valCreator = valuer.NewReflectValue
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = mdls
	}
}

// DBWithCmdTimeout 小于等于 0 表示不设置超时
func DBWithCmdTimeout(timeout time.Duration) DBOption {
	return func(db *DB) {
		db.cmdTimeout = timeout
	}
}

// DBWithFailureLogger 驱动报错的时候会记录到 logger 里
func DBWithFailureLogger(logger FailureLogger) DBOption {
	return func(db *DB) {
		db.logger = logger
	}
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) getCore() core {
	return db.core
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return db.db.QueryxContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) conn(ctx context.Context) (*sql.Conn, error) {
	return db.db.Conn(ctx)
}
