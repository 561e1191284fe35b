package valuer_test

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/internal/test"
	"github.com/coderi421/rapper/orm/internal/valuer"
	"github.com/coderi421/rapper/orm/internal/valuer/unsafe"
	"github.com/coderi421/rapper/orm/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

var creators = map[string]valuer.Creator{
	"reflect": valuer.NewReflectValue,
	"unsafe":  unsafe.NewUnsafeValue,
}

func TestValue_SetColumns(t *testing.T) {
	type column struct {
		name string
		val  driver.Value
	}
	testCases := []struct {
		name    string
		row     []column
		wantVal *test.SimpleStruct
	}{
		{
			name: "normal value",
			row: []column{
				{"Id", []byte("1")},
				{"Bool", []byte("true")},
				{"BoolPtr", []byte("false")},
				{"Int", []byte("12")},
				{"IntPtr", []byte("13")},
				{"Int8", []byte("8")},
				{"Int16", []byte("16")},
				{"Int32", []byte("32")},
				{"Int64", []byte("64")},
				{"Uint", []byte("14")},
				{"Uint32Ptr", []byte("132")},
				{"Float32", []byte("3.2")},
				{"Float64", []byte("6.4")},
				{"Float64Ptr", []byte("-6.4")},
				{"ByteArray", []byte("hello")},
				{"String", []byte("world")},
				{"StringPtr", []byte("world ptr")},
				{"NullStringPtr", []byte("null string")},
				{"NullInt64", []byte("64")},
				{"NullBool", []byte("true")},
			},
			wantVal: test.NewSimpleStruct(1),
		},
		{
			// 列名大小写不敏感，多余的列直接忽略，没有的字段保持零值
			name: "case insensitive and extra columns",
			row: []column{
				{"ID", []byte("2")},
				{"string", []byte("world")},
				{"not_a_field", []byte("ignored")},
			},
			wantVal: &test.SimpleStruct{Id: 2, String: "world"},
		},
		{
			name: "null becomes zero",
			row: []column{
				{"Id", []byte("3")},
				{"Int", nil},
				{"IntPtr", nil},
				{"String", nil},
				{"NullInt64", nil},
				{"NullStringPtr", nil},
			},
			wantVal: &test.SimpleStruct{Id: 3},
		},
	}

	r := model.NewRegistry()
	meta, err := r.Get(&test.SimpleStruct{})
	require.NoError(t, err)

	for creatorName, creator := range creators {
		for _, tc := range testCases {
			t.Run(creatorName+"/"+tc.name, func(t *testing.T) {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				cols := make([]string, 0, len(tc.row))
				vals := make([]driver.Value, 0, len(tc.row))
				for _, c := range tc.row {
					cols = append(cols, c.name)
					vals = append(vals, c.val)
				}
				mock.ExpectQuery("SELECT *").WillReturnRows(sqlmock.NewRows(cols).AddRow(vals...))

				rows, err := db.Query("SELECT *")
				require.NoError(t, err)
				defer func() { _ = rows.Close() }()
				require.True(t, rows.Next())

				val := &test.SimpleStruct{}
				err = creator(val, meta).SetColumns(rows)
				require.NoError(t, err)
				assert.Equal(t, tc.wantVal, val)
			})
		}
	}
}

func TestValue_Materialize(t *testing.T) {
	date := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	testCases := []struct {
		name    string
		columns []string
		values  []any
		wantVal *test.Log
		wantErr error
	}{
		{
			name:    "driver values",
			columns: []string{"logid", "APPLICATIONID", "Date", "Message", "StackTrace"},
			values:  []any{int64(32), int64(2), date, []byte("Test"), nil},
			wantVal: &test.Log{
				LogId:         null.IntFrom(32),
				ApplicationId: 2,
				Date:          null.TimeFrom(date),
				Message:       null.StringFrom("Test"),
			},
		},
		{
			name:    "text protocol",
			columns: []string{"ApplicationId", "Message"},
			values:  []any{[]byte("7"), "hello"},
			wantVal: &test.Log{ApplicationId: 7, Message: null.StringFrom("hello")},
		},
		{
			name:    "already typed",
			columns: []string{"LogId", "Message", "Extra"},
			values:  []any{null.IntFrom(1), null.StringFrom("typed"), "dropped"},
			wantVal: &test.Log{LogId: null.IntFrom(1), Message: null.StringFrom("typed")},
		},
		{
			name:    "unsupported",
			columns: []string{"ApplicationId"},
			values:  []any{[]int{1}},
			wantErr: errs.NewErrAssignField("ApplicationId", []int{1}, errs.NewErrUnsupportedAssign("int", []int{1})),
		},
	}

	r := model.NewRegistry()
	meta, err := r.Get(&test.Log{})
	require.NoError(t, err)

	for creatorName, creator := range creators {
		for _, tc := range testCases {
			t.Run(creatorName+"/"+tc.name, func(t *testing.T) {
				val := &test.Log{}
				err := creator(val, meta).Materialize(tc.columns, tc.values)
				assert.Equal(t, tc.wantErr, err)
				if err != nil {
					return
				}
				assert.Equal(t, tc.wantVal, val)
			})
		}
	}
}

func TestValue_Field(t *testing.T) {
	r := model.NewRegistry()
	meta, err := r.Get(&test.PointerLog{})
	require.NoError(t, err)

	for creatorName, creator := range creators {
		t.Run(creatorName, func(t *testing.T) {
			val := creator(&test.PointerLog{ApplicationId: 2, Message: test.ToPtr("hi")}, meta)

			app, err := val.Field("ApplicationId")
			require.NoError(t, err)
			assert.Equal(t, 2, app)

			msg, err := val.Field("Message")
			require.NoError(t, err)
			assert.Equal(t, test.ToPtr("hi"), msg)

			id, err := val.Field("LogId")
			require.NoError(t, err)
			assert.True(t, model.IsNull(id))

			_, err = val.Field("Invalid")
			assert.Equal(t, errs.NewErrUnknownField("Invalid"), err)
		})
	}
}

func TestAssign(t *testing.T) {
	var s sql.NullString
	require.NoError(t, valuer.Assign(reflect.ValueOf(&s).Elem(), "x"))
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, s)

	var f float64
	require.NoError(t, valuer.Assign(reflect.ValueOf(&f).Elem(), int64(3)))
	assert.Equal(t, float64(3), f)

	var p *int64
	require.NoError(t, valuer.Assign(reflect.ValueOf(&p).Elem(), []byte("5")))
	assert.Equal(t, test.ToPtr(int64(5)), p)

	// int -> string 不能变成 rune
	var str string
	assert.Error(t, valuer.Assign(reflect.ValueOf(&str).Elem(), int64(65)))
}
