package orm

import (
	"database/sql"

	"github.com/coderi421/rapper/orm/internal/errs"
)

type Result struct {
	err error
	res sql.Result
}

// LastInsertId 重新 database sql 的 Result 方法 做一层拦截
func (r Result) LastInsertId() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.res == nil {
		return 0, errs.ErrNoResult
	}
	return r.res.LastInsertId()
}

// RowsAffected 批量写入的时候是交给数据库的行数
func (r Result) RowsAffected() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.res == nil {
		return 0, errs.ErrNoResult
	}
	return r.res.RowsAffected()
}

func (r Result) Err() error {
	return r.err
}
