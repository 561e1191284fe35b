package orm

import (
	"github.com/coderi421/rapper/orm/model"
)

// Columns 返回 T 可以映射的字段，顺序就是字段声明的顺序
// 同一个 T 多次调用返回的是同一份数据，不要修改它
func Columns[T any](sess Session) ([]*model.Field, error) {
	m, err := sess.getCore().r.Get(new(T))
	if err != nil {
		return nil, err
	}
	return m.Fields, nil
}

// Materialize 把已经读出来的一行数据转换成 T
// 列名大小写不敏感；nil 变成字段的零值；多余的列被忽略
func Materialize[T any](sess Session, columns []string, values []any) (*T, error) {
	c := sess.getCore()
	tp := new(T)
	m, err := c.r.Get(tp)
	if err != nil {
		return nil, err
	}
	if err = c.valCreator(tp, m).Materialize(columns, values); err != nil {
		return nil, err
	}
	return tp, nil
}
