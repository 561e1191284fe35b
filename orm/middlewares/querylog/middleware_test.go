package querylog

import (
	"context"
	"database/sql"
	"log"
	"testing"

	"github.com/coderi421/rapper/orm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMiddlewareBuilder(t *testing.T) {
	var query string
	var args []any

	customLogFunc := func(q string, as []any) {
		query = q
		args = as
		log.Printf("sql: %s, args: %v", query, args)
	}

	m := NewBuilder().LogFunc(customLogFunc)

	db, err := orm.Open("sqlite3",
		"file:querylog.db?cache=shared&mode=memory",
		orm.DBWithMiddlewares(m.Build()))
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	// 表不存在，但是语句已经记录下来了
	_, _ = orm.NewSelector[TestModel](db).
		Where("WHERE Id = @Id", sql.Named("Id", 10)).
		Get(context.Background())
	assert.Equal(t, "SELECT * FROM TestModels WHERE Id = @Id", query)
	assert.Equal(t, []any{10}, args)

	_ = orm.NewInserter[TestModel](db).Values(&TestModel{Id: 18}).Exec(context.Background())
	assert.Equal(t, "INSERT INTO TestModels (FirstName,Age,LastName) VALUES (@FirstName,@Age,@LastName)", query)
	assert.Equal(t, []any{"", int8(0), nil}, args)

	_ = orm.NewBulkInserter[TestModel](db).Values(&TestModel{FirstName: "Tom"}).Exec(context.Background())
	assert.Equal(t, "BULK INSERT TestModels [Id FirstName Age LastName]", query)
	assert.Equal(t, []any{1}, args)

	_, _ = orm.RawQuery[TestModel](db, "SELECT * FROM TestModels WHERE Age > ?", 3).GetMulti(context.Background())
	assert.Equal(t, "SELECT * FROM TestModels WHERE Age > ?", query)
	assert.Equal(t, []any{3}, args)
}

func TestMiddlewareBuilder_BuildError(t *testing.T) {
	called := false
	m := NewBuilder().LogFunc(func(query string, args []any) {
		called = true
	})
	db, err := orm.Open("sqlite3",
		"file:querylog.db?cache=shared&mode=memory",
		orm.DBWithMiddlewares(m.Build()))
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	res := orm.NewUpdater[TestModel](db).Update(nil).Exec(context.Background())
	assert.ErrorIs(t, res.Err(), orm.ErrValidation)
	assert.False(t, called)
}

type TestModel struct {
	Id        int64 `orm:"primary_key"`
	FirstName string
	Age       int8
	LastName  *sql.NullString
}
