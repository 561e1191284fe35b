package errs

import (
	"errors"
	"fmt"
)

// 四类错误，调用方统一用 errors.Is 判断
var (
	// ErrValidation 输入的 SQL 或者构造出来的语句不合法
	ErrValidation = errors.New("orm: validation error")
	// ErrPredicate UPDATE 语句无法确定要更新哪些行
	ErrPredicate = errors.New("orm: predicate error")
	// ErrTransport 驱动执行失败，例如网络、语法、约束
	ErrTransport = errors.New("orm: transport error")
	// ErrType 结构体不能映射成表
	ErrType = errors.New("orm: type error")
)

var (
	// ErrPointerOnly 只支持一级指针作为输入
	// 看到这个 error 说明你输入了其它的东西
	// 我们并不希望用户能够直接使用 err == ErrPointerOnly
	// 所以放在我们的 internal 包里
	ErrPointerOnly = fmt.Errorf("%w: only pointer to struct is supported, e.g. *User", ErrType)
	// ErrNoUsableFields 结构体里面没有任何可以映射的字段
	ErrNoUsableFields = fmt.Errorf("%w: record type has no usable fields", ErrType)

	ErrEmptyStatement   = fmt.Errorf("%w: SQL statement was null or empty", ErrValidation)
	ErrInsertZeroRow    = fmt.Errorf("%w: no record to insert", ErrValidation)
	ErrNoInsertColumns  = fmt.Errorf("%w: no column left to insert after exclusions", ErrValidation)
	ErrNoUpdatedColumns = fmt.Errorf("%w: no column to update", ErrValidation)
	ErrNoWhereClause    = fmt.Errorf("%w: no where clause could be derived: no primary key and none supplied", ErrPredicate)
	ErrNilRecord        = fmt.Errorf("%w: record is nil", ErrValidation)
	ErrMixedArgs        = fmt.Errorf("%w: named and positional arguments cannot be mixed", ErrValidation)

	ErrNoRows = errors.New("orm: no rows in result set")
	// ErrNoResult 中间件没有执行语句就返回了，没有驱动的结果
	ErrNoResult = errors.New("orm: statement was not executed, no result")
)

// NewErrUnknownField 返回代表未知字段的错误
// 一般意味着你可能输入的是列名，或者输入了错误的字段名
func NewErrUnknownField(name string) error {
	return fmt.Errorf("%w: unknown field %s", ErrValidation, name)
}

// NewErrInvalidTagContent 标签内容不合法
func NewErrInvalidTagContent(tag string) error {
	return fmt.Errorf("%w: invalid tag content %s", ErrValidation, tag)
}

// NewErrUnknownTagKey 不支持的标签 key
func NewErrUnknownTagKey(key string) error {
	return fmt.Errorf("%w: unknown tag key %s", ErrValidation, key)
}

// NewErrDefaultKeyNotNullable default_key 只能用在可以为 NULL 的字段上，
// 否则这个字段永远不会被跳过
func NewErrDefaultKeyNotNullable(field string) error {
	return fmt.Errorf("%w: default_key field %s can never be null", ErrValidation, field)
}

// NewErrUnsupportedAssign 结果集里的值没办法赋给字段
func NewErrUnsupportedAssign(field string, val any) error {
	return fmt.Errorf("%w: cannot assign %T to field %s", ErrType, val, field)
}

// NewErrAssignField 与 NewErrUnsupportedAssign 相同，但是带上了失败的原因，例如解析数字失败
func NewErrAssignField(field string, val any, cause error) error {
	return fmt.Errorf("%w: cannot assign %T to field %s: %v", ErrType, val, field, cause)
}

// NewErrDuplicateBinding 同一个语句里出现了两个同名参数
func NewErrDuplicateBinding(name string) error {
	return fmt.Errorf("%w: parameter @%s is bound twice", ErrValidation, name)
}

// NewErrUnboundParameter SQL 中的 @name 没有对应的参数
func NewErrUnboundParameter(name string) error {
	return fmt.Errorf("%w: no value bound for parameter @%s", ErrValidation, name)
}

// NewErrUnsupportedDriver 无法根据驱动名推断方言，需要用 DBWithDialect 指定
func NewErrUnsupportedDriver(driver string) error {
	return fmt.Errorf("%w: unsupported driver %s", ErrValidation, driver)
}

// TransportError 包装驱动返回的错误，保留原始错误以便 errors.As
type TransportError struct {
	Op  string
	Err error
}

func NewErrTransport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("orm: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, ErrTransport) 成立
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
