package orm

import (
	"errors"

	"github.com/coderi421/rapper/orm/internal/errs"
	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// 将内部的 sentinel error 暴露出去
var (
	// ErrNoRows 代表没有找到数据
	ErrNoRows = errs.ErrNoRows
	// ErrNoResult 中间件拦截了语句，Result 里面没有驱动的结果
	ErrNoResult = errs.ErrNoResult

	// ErrValidation SQL 为空，或者排除之后没有任何列
	ErrValidation = errs.ErrValidation
	// ErrPredicate UPDATE 没办法确定要更新哪些行
	ErrPredicate = errs.ErrPredicate
	// ErrTransport 驱动返回了错误，用 errors.As 可以拿到驱动的原始错误
	ErrTransport = errs.ErrTransport
	// ErrType 结构体没办法映射成表
	ErrType = errs.ErrType
)

// TransportError 驱动返回的错误
type TransportError = errs.TransportError

// IsConstraintViolation 判断是不是违反了唯一索引、外键或者非空约束
func IsConstraintViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		// 重复键，外键，非空
		case 1062, 1451, 1452, 1048:
			return true
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgerrcode.IsIntegrityConstraintViolation(string(pqErr.Code))
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		// 主键，唯一索引，外键和 check 约束
		case 2627, 2601, 547:
			return true
		}
	}
	return false
}
