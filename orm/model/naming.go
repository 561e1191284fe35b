package model

import "github.com/iancoleman/strcase"

// Naming 根据 Go 的类型名和字段名推导表名和列名
type Naming interface {
	TableName(typeName string) string
	ColumnName(fieldName string) string
}

var (
	// Plural 是默认的策略：Log -> Logs，字段名原样作为列名
	// 不处理不规则复数，也不带 schema
	Plural Naming = pluralNaming{}
	// SnakeCase ApplicationId -> application_id，表名 Log -> logs
	SnakeCase Naming = snakeNaming{}
)

type pluralNaming struct{}

func (pluralNaming) TableName(typeName string) string {
	return typeName + "s"
}

func (pluralNaming) ColumnName(fieldName string) string {
	return fieldName
}

type snakeNaming struct{}

func (snakeNaming) TableName(typeName string) string {
	return strcase.ToSnake(typeName) + "s"
}

func (snakeNaming) ColumnName(fieldName string) string {
	return strcase.ToSnake(fieldName)
}

// ResolveTable 显式指定的表名优先，原样返回
func ResolveTable(m *Model, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return m.TableName
}
