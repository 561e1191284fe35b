package orm

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func TestUpdater_Build(t *testing.T) {
	db := memoryDB(t)
	date := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	testCases := []struct {
		name      string
		u         QueryBuilder
		wantQuery *Statement
		wantErr   error
	}{
		{
			name:    "no value",
			u:       NewUpdater[test.Log](db),
			wantErr: errs.ErrNilRecord,
		},
		{
			// 主键作为默认的条件，只出现一次，也不会出现在 SET 里面
			name: "primary key predicate",
			u: NewUpdater[test.Log](db).Update(&test.Log{
				LogId:         null.IntFrom(7),
				ApplicationId: 2,
				Message:       null.StringFrom("updated"),
			}),
			wantQuery: &Statement{
				SQL: "UPDATE Logs SET ApplicationId = @ApplicationId,Message = @Message WHERE LogId = @LogId",
				Bindings: []Binding{
					{Name: "ApplicationId", Value: 2},
					{Name: "Message", Value: null.StringFrom("updated")},
					{Name: "LogId", Value: null.IntFrom(7)},
				},
			},
		},
		{
			name: "default key present",
			u: NewUpdater[test.Log](db).Update(&test.Log{
				LogId: null.IntFrom(7),
				Date:  null.TimeFrom(date),
			}),
			wantQuery: &Statement{
				SQL: "UPDATE Logs SET ApplicationId = @ApplicationId,Date = @Date WHERE LogId = @LogId",
				Bindings: []Binding{
					{Name: "ApplicationId", Value: 0},
					{Name: "Date", Value: null.TimeFrom(date)},
					{Name: "LogId", Value: null.IntFrom(7)},
				},
			},
		},
		{
			// 调用者的 WHERE 优先于主键
			name: "where clause",
			u: NewUpdater[test.Log](db).Table("AppLogs").
				Update(&test.Log{LogId: null.IntFrom(7), ExceptionMessage: null.StringFrom("boom")}).
				Where("WHERE ApplicationId = @AppID", sql.Named("AppID", 3)),
			wantQuery: &Statement{
				SQL: "UPDATE AppLogs SET ApplicationId = @ApplicationId,ExceptionMessage = @ExceptionMessage WHERE ApplicationId = @AppID",
				Bindings: []Binding{
					{Name: "ApplicationId", Value: 0},
					{Name: "ExceptionMessage", Value: null.StringFrom("boom")},
					{Name: "AppID", Value: 3},
				},
			},
		},
		{
			name: "where clause without key",
			u: NewUpdater[test.PointerLog](db).
				Update(&test.PointerLog{Message: test.ToPtr("all")}).
				Where("WHERE 1 = 1"),
			wantQuery: &Statement{
				SQL: "UPDATE Logs SET ApplicationId = @ApplicationId,Message = @Message WHERE 1 = 1",
				Bindings: []Binding{
					{Name: "ApplicationId", Value: 0},
					{Name: "Message", Value: "all"},
				},
			},
		},
		{
			name:    "no primary key value",
			u:       NewUpdater[test.Log](db).Update(&test.Log{ApplicationId: 2}),
			wantErr: errs.ErrNoWhereClause,
		},
		{
			name: "no primary key",
			u: func() QueryBuilder {
				type NoKey struct {
					Name string
				}
				return NewUpdater[NoKey](db).Update(&NoKey{Name: "Tom"})
			}(),
			wantErr: errs.ErrNoWhereClause,
		},
		{
			name: "nothing to set",
			u: func() QueryBuilder {
				type KeyOnly struct {
					Id   int64 `orm:"primary_key"`
					Name *string
				}
				return NewUpdater[KeyOnly](db).Update(&KeyOnly{Id: 1})
			}(),
			wantErr: errs.ErrNoUpdatedColumns,
		},
		{
			// SET 里面已经有 @ApplicationId 了
			name: "where binds a set column",
			u: NewUpdater[test.Log](db).
				Update(&test.Log{ApplicationId: 2}).
				Where("WHERE ApplicationId = @ApplicationId", sql.Named("ApplicationId", 3)),
			wantErr: errs.NewErrDuplicateBinding("ApplicationId"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := tc.u.Build()
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantQuery, q)
		})
	}
}

// 新的记录里缺失的字段不会覆盖数据库里面已有的值
func TestUpdater_PartialUpdate(t *testing.T) {
	db := memoryDB(t)
	q, err := NewUpdater[test.Log](db).Update(&test.Log{
		LogId:   null.IntFrom(1),
		Message: null.StringFrom("only message"),
	}).Build()
	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "StackTrace")
	assert.NotContains(t, q.SQL, "ExceptionAsJson")
	assert.NotContains(t, q.SQL, "Date")
	// 主键只出现在 WHERE 里面
	assert.Equal(t, 1, strings.Count(q.SQL, "LogId = @LogId"))
	assert.NotContains(t, q.SQL, "SET LogId")
}

func TestUpdater_Exec(t *testing.T) {
	db, mock := mockDB(t, "mysql")
	mock.ExpectExec("UPDATE Logs SET ApplicationId = ?,Message = ? WHERE LogId = ?").
		WithArgs(2, "updated", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res := NewUpdater[test.PointerLog](db).Update(&test.PointerLog{
		LogId:         test.ToPtr(int64(7)),
		ApplicationId: 2,
		Message:       test.ToPtr("updated"),
		Note:          "ignored",
	}).Exec(context.Background())
	require.NoError(t, res.Err())
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
