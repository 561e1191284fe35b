package orm

import (
	"context"
	"database/sql/driver"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/coderi421/rapper/orm/model"
	"github.com/google/uuid"
	"github.com/gotomicro/ekit/slice"
)

// BulkBuffer 表格形式的批量写入数据
// 每一行的长度都等于 Columns 的长度，nil 表示 NULL
type BulkBuffer struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// compact 去掉所有行都是 NULL 的列，让数据库的默认值和自增主键生效
func (b *BulkBuffer) compact() *BulkBuffer {
	keep := make([]int, 0, len(b.Columns))
	for c := range b.Columns {
		for _, row := range b.Rows {
			if row[c] != nil {
				keep = append(keep, c)
				break
			}
		}
	}
	if len(keep) == len(b.Columns) {
		return b
	}

	res := &BulkBuffer{
		Table: b.Table,
		Columns: slice.Map(keep, func(idx int, c int) string {
			return b.Columns[c]
		}),
		Rows: make([][]any, 0, len(b.Rows)),
	}
	for _, row := range b.Rows {
		res.Rows = append(res.Rows, slice.Map(keep, func(idx int, c int) any {
			return row[c]
		}))
	}
	return res
}

// split 把 NULL 出现在相同列上的连续行分成一组，每一组再 compact
// 这样每一行缺失的列都由数据库的默认值填充，与单条 INSERT 一致，行的顺序不变
func (b *BulkBuffer) split() []*BulkBuffer {
	res := make([]*BulkBuffer, 0, 1)
	start := 0
	for i := 1; i <= len(b.Rows); i++ {
		if i < len(b.Rows) && sameNulls(b.Rows[start], b.Rows[i]) {
			continue
		}
		part := &BulkBuffer{Table: b.Table, Columns: b.Columns, Rows: b.Rows[start:i]}
		res = append(res, part.compact())
		start = i
	}
	return res
}

func sameNulls(a, b []any) bool {
	for i := range a {
		if (a[i] == nil) != (b[i] == nil) {
			return false
		}
	}
	return true
}

// BulkInserter 一次性写入多条数据
// 整个写入只有成功和失败两种结果，不会告诉你哪一行失败了
type BulkInserter[T any] struct {
	core
	sess   Session
	table  string
	values []*T
}

func NewBulkInserter[T any](sess Session) *BulkInserter[T] {
	return &BulkInserter[T]{
		core: sess.getCore(),
		sess: sess,
	}
}

func (b *BulkInserter[T]) Into(table string) *BulkInserter[T] {
	b.table = table
	return b
}

func (b *BulkInserter[T]) Values(vals ...*T) *BulkInserter[T] {
	b.values = vals
	return b
}

// BuildBuffer 列由 T 决定，被忽略的字段不出现
// 主键总是写 NULL，default_key 在值缺失的时候写 NULL
func (b *BulkInserter[T]) BuildBuffer() (*BulkBuffer, error) {
	if len(b.values) == 0 {
		return nil, errs.ErrInsertZeroRow
	}
	m, err := b.r.Get(new(T))
	if err != nil {
		return nil, err
	}

	fields := make([]*model.Field, 0, len(m.Fields))
	for _, fd := range m.Fields {
		if !fd.Markers.Has(model.Ignore) {
			fields = append(fields, fd)
		}
	}
	if len(fields) == 0 {
		return nil, errs.ErrNoInsertColumns
	}

	buf := &BulkBuffer{
		Table: model.ResolveTable(m, b.table),
		Columns: slice.Map(fields, func(idx int, src *model.Field) string {
			return src.ColName
		}),
		Rows: make([][]any, 0, len(b.values)),
	}
	for _, rec := range b.values {
		if rec == nil {
			return nil, errs.ErrNilRecord
		}
		val := b.valCreator(rec, m)
		row := make([]any, len(fields))
		for i, fd := range fields {
			v, err := val.Field(fd.GoName)
			if err != nil {
				return nil, err
			}
			if skipOnInsert(fd, v) {
				continue
			}
			if row[i], err = driverValue(v); err != nil {
				return nil, err
			}
		}
		buf.Rows = append(buf.Rows, row)
	}
	return buf, nil
}

func (b *BulkInserter[T]) Exec(ctx context.Context) Result {
	m, err := b.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return bulkHandler(ctx, b.sess, b.core, qc)
	}
	return toResult(b.chain(root)(ctx, &QueryContext{
		ID:    uuid.NewString(),
		Type:  "BULK",
		Bulk:  b,
		Model: m,
		Table: model.ResolveTable(m, b.table),
	}))
}

// bulkHandler 独占一个连接，在同一个事务里面写入，任何一步失败都回滚
func bulkHandler(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	buf, err := qc.Bulk.BuildBuffer()
	if err != nil {
		return &QueryResult{Err: err}
	}
	parts := buf.split()
	for _, part := range parts {
		if len(part.Columns) == 0 {
			return &QueryResult{Err: errs.ErrNoInsertColumns}
		}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	conn, err := sess.conn(ctx)
	if err != nil {
		return &QueryResult{Err: c.transportErr(qc, err)}
	}
	defer func() {
		_ = conn.Close()
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return &QueryResult{Err: c.transportErr(qc, err)}
	}
	for _, part := range parts {
		if err = c.dialect.bulkCopy(ctx, conn, tx, part); err != nil {
			_ = tx.Rollback()
			return &QueryResult{Err: c.transportErr(qc, err)}
		}
	}
	if err = tx.Commit(); err != nil {
		return &QueryResult{Err: c.transportErr(qc, err)}
	}
	return &QueryResult{Result: Result{res: driver.RowsAffected(len(buf.Rows))}}
}
