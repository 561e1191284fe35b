package test

import (
	"database/sql"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Log 与 Logs 表对应，LogId 自增，Date 由数据库默认值填充
type Log struct {
	LogId            null.Int  `orm:"primary_key"`
	ApplicationId    int
	Date             null.Time `orm:"default_key"`
	Message          null.String
	StackTrace       null.String
	ExceptionAsJson  null.String
	ExceptionMessage null.String
}

// NewLog 只设置了 ApplicationId 和 Message
func NewLog(appID int, msg string) *Log {
	return &Log{
		ApplicationId: appID,
		Message:       null.StringFrom(msg),
	}
}

// PointerLog 用指针表达缺失，与 Log 等价
type PointerLog struct {
	LogId         *int64 `orm:"primary_key"`
	ApplicationId int
	Date          *time.Time `orm:"default_key"`
	Message       *string
	Note          string `orm:"ignore"`
}

func (PointerLog) TableName() string {
	return "Logs"
}

// SimpleStruct 覆盖常见的基础类型和 sql.Null 类型
type SimpleStruct struct {
	Id         uint64
	Bool       bool
	BoolPtr    *bool
	Int        int
	IntPtr     *int
	Int8       int8
	Int16      int16
	Int32      int32
	Int64      int64
	Uint       uint
	Uint32Ptr  *uint32
	Float32    float32
	Float64    float64
	Float64Ptr *float64
	ByteArray  []byte
	String     string
	StringPtr  *string

	NullStringPtr *sql.NullString
	NullInt64     sql.NullInt64
	NullBool      sql.NullBool
}

func NewSimpleStruct(id uint64) *SimpleStruct {
	return &SimpleStruct{
		Id:            id,
		Bool:          true,
		BoolPtr:       ToPtr(false),
		Int:           12,
		IntPtr:        ToPtr(13),
		Int8:          8,
		Int16:         16,
		Int32:         32,
		Int64:         64,
		Uint:          14,
		Uint32Ptr:     ToPtr(uint32(132)),
		Float32:       3.2,
		Float64:       6.4,
		Float64Ptr:    ToPtr(-6.4),
		ByteArray:     []byte("hello"),
		String:        "world",
		StringPtr:     ToPtr("world ptr"),
		NullStringPtr: &sql.NullString{String: "null string", Valid: true},
		NullInt64:     sql.NullInt64{Int64: 64, Valid: true},
		NullBool:      sql.NullBool{Bool: true, Valid: true},
	}
}

func ToPtr[T any](t T) *T {
	return &t
}
