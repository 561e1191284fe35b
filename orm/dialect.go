package orm

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/coderi421/rapper/orm/internal/errs"
	mssql "github.com/denisenkom/go-mssqldb"
	lru "github.com/hashicorp/golang-lru"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	SQLServer  Dialect = &mssqlDialect{}
	SQLite3    Dialect = &sqlite3Dialect{standardSQL{maxArgs: 999}}
	MySQL      Dialect = &mysqlDialect{standardSQL{maxArgs: 65535}}
	Postgres   Dialect = &pgxDialect{}
	PostgresPQ Dialect = &pqDialect{}
)

// Dialect 不同数据库在参数绑定和批量写入上的差异
type Dialect interface {
	// named 驱动是否直接支持 @Name 形式的命名参数
	named() bool
	// bindType sqlx 中的占位符类型，named 为 false 的时候使用
	bindType() int
	// bulkCopy 在 tx 中把 buf 一次性写入，conn 是 tx 所在的连接
	bulkCopy(ctx context.Context, conn *sql.Conn, tx *sql.Tx, buf *BulkBuffer) error
}

// dialectOf 根据 database/sql 中注册的驱动名推断方言
func dialectOf(driver string) (Dialect, error) {
	switch driver {
	case "sqlserver", "mssql":
		return SQLServer, nil
	case "sqlite3":
		return SQLite3, nil
	case "mysql":
		return MySQL, nil
	case "pgx":
		return Postgres, nil
	case "postgres":
		return PostgresPQ, nil
	}
	return nil, errs.NewErrUnsupportedDriver(driver)
}

// standardSQL 没有批量写入协议的数据库，使用多行 INSERT
type standardSQL struct {
	// maxArgs 一条语句最多的参数个数
	maxArgs int
}

func (s *standardSQL) named() bool {
	return false
}

func (s *standardSQL) bindType() int {
	return sqlx.QUESTION
}

// bulkCopy INSERT INTO t (c1,c2) VALUES (?,?),(?,?)
// 按照参数上限切分成多条语句，都在同一个事务里面
func (s *standardSQL) bulkCopy(ctx context.Context, _ *sql.Conn, tx *sql.Tx, buf *BulkBuffer) error {
	cols := len(buf.Columns)
	perStmt := s.maxArgs / cols
	if perStmt < 1 {
		perStmt = 1
	}
	for start := 0; start < len(buf.Rows); start += perStmt {
		end := start + perStmt
		if end > len(buf.Rows) {
			end = len(buf.Rows)
		}
		chunk := buf.Rows[start:end]

		var sb strings.Builder
		sb.WriteString("INSERT INTO ")
		sb.WriteString(buf.Table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(buf.Columns, ","))
		sb.WriteString(") VALUES ")
		args := make([]any, 0, len(chunk)*cols)
		for i, row := range chunk {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('(')
			for j := range row {
				if j > 0 {
					sb.WriteByte(',')
				}
				sb.WriteByte('?')
			}
			sb.WriteByte(')')
			args = append(args, row...)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

type mysqlDialect struct {
	standardSQL
}

// sqlite3Dialect go-sqlite3 支持 @Name
type sqlite3Dialect struct {
	standardSQL
}

func (s *sqlite3Dialect) named() bool {
	return true
}

// mssqlDialect 使用 bulk copy 协议
type mssqlDialect struct {
	standardSQL
}

func (m *mssqlDialect) named() bool {
	return true
}

func (m *mssqlDialect) bindType() int {
	return sqlx.AT
}

func (m *mssqlDialect) bulkCopy(ctx context.Context, _ *sql.Conn, tx *sql.Tx, buf *BulkBuffer) error {
	return copyIn(ctx, tx, mssql.CopyIn(buf.Table, mssql.BulkOptions{}, buf.Columns...), buf)
}

// pqDialect 是 lib/pq 驱动，使用 COPY FROM STDIN
type pqDialect struct {
	standardSQL
}

func (p *pqDialect) bindType() int {
	return sqlx.DOLLAR
}

func (p *pqDialect) bulkCopy(ctx context.Context, _ *sql.Conn, tx *sql.Tx, buf *BulkBuffer) error {
	return copyIn(ctx, tx, pqCopyIn(buf), buf)
}

// pgFold PostgreSQL 会把没有引号的标识符转换成小写，
// COPY 会给标识符加引号，所以先转换成小写，与其它语句指向同一张表
func pgFold(buf *BulkBuffer) ([]string, []string) {
	table := strings.Split(strings.ToLower(buf.Table), ".")
	cols := make([]string, 0, len(buf.Columns))
	for _, c := range buf.Columns {
		cols = append(cols, strings.ToLower(c))
	}
	return table, cols
}

// pqCopyIn COPY "logs" ("applicationid", "message") FROM STDIN
func pqCopyIn(buf *BulkBuffer) string {
	table, cols := pgFold(buf)
	if len(table) == 2 {
		return pq.CopyInSchema(table[0], table[1], cols...)
	}
	return pq.CopyIn(table[len(table)-1], cols...)
}

// pgxDialect 是 pgx 驱动，直接使用 pgx.Conn 的 CopyFrom
type pgxDialect struct {
	standardSQL
}

func (p *pgxDialect) bindType() int {
	return sqlx.DOLLAR
}

func (p *pgxDialect) bulkCopy(ctx context.Context, conn *sql.Conn, _ *sql.Tx, buf *BulkBuffer) error {
	return conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("orm: pgx dialect used with driver connection %T", driverConn)
		}
		// 事务已经在这个连接上开启了，CopyFrom 会在事务里面执行
		table, cols := pgFold(buf)
		_, err := c.Conn().CopyFrom(ctx, pgx.Identifier(table), cols, pgx.CopyFromRows(buf.Rows))
		return err
	})
}

// copyIn mssql 和 lib/pq 的批量写入都是：准备一个特殊的语句，每一行执行一次，最后不带参数执行一次
func copyIn(ctx context.Context, tx *sql.Tx, query string, buf *BulkBuffer) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() {
		_ = stmt.Close()
	}()
	for _, row := range buf.Rows {
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return err
		}
	}
	_, err = stmt.ExecContext(ctx)
	return err
}

// binder 把 @Name 形式的语句转换成驱动支持的形式
type binder struct {
	// plans 同样的 SQL 只解析一次
	plans *lru.Cache
}

type plan struct {
	query string
	names []string
}

func newBinder(size int) (*binder, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &binder{plans: c}, nil
}

func (b *binder) args(d Dialect, st *Statement) (string, []any, error) {
	// 没有命名参数，原样交给驱动
	if len(st.Bindings) == 0 {
		return st.SQL, st.Args, nil
	}
	if d.named() {
		args := make([]any, 0, len(st.Bindings))
		for _, bd := range st.Bindings {
			args = append(args, sql.Named(bd.Name, bd.Value))
		}
		return st.SQL, args, nil
	}

	p := b.plan(d.bindType(), st.SQL)
	args := make([]any, 0, len(p.names))
	for _, name := range p.names {
		val, ok := st.Value(name)
		if !ok {
			return "", nil, errs.NewErrUnboundParameter(name)
		}
		args = append(args, val)
	}
	return p.query, args, nil
}

func (b *binder) plan(bindType int, query string) plan {
	key := planKey(bindType, query)
	if p, ok := b.plans.Get(key); ok {
		return p.(plan)
	}
	p := parsePlan(bindType, query)
	b.plans.Add(key, p)
	return p
}

func planKey(bindType int, query string) string {
	return strconv.Itoa(bindType) + ":" + query
}

// parsePlan 把 @Name 替换成位置参数，引号里面的内容和 @@ 开头的变量保持原样
// MySQL 的字符串里面反斜杠是转义符，'it\'s @x' 整个都是字符串
// MySQL 的用户变量在 SET @v 和 @v := 的位置保持原样，
// 其余位置的 @v 一律当成参数，需要读用户变量的语句请使用 RawQuery 加上驱动参数
func parsePlan(bindType int, query string) plan {
	var sb strings.Builder
	sb.Grow(len(query))
	names := make([]string, 0, 4)
	mysql := bindType == sqlx.QUESTION
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		if quote != 0 {
			sb.WriteByte(c)
			if mysql && c == '\\' && i+1 < len(query) {
				i++
				sb.WriteByte(query[i])
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			sb.WriteByte(c)
		case c == '@' && i+1 < len(query) && query[i+1] == '@':
			sb.WriteString("@@")
			i++
		case c == '@' && i+1 < len(query) && isIdentStart(query[i+1]):
			j := i + 1
			for j < len(query) && isIdent(query[j]) {
				j++
			}
			if mysql && isUserVariable(query, i, j) {
				sb.WriteString(query[i:j])
				i = j - 1
				continue
			}
			names = append(names, query[i+1:j])
			sb.WriteString(placeholder(bindType, len(names)))
			i = j - 1
		default:
			sb.WriteByte(c)
		}
	}
	return plan{query: sb.String(), names: names}
}

// isUserVariable query[start:end] 是 @v，前面是 SET 或者后面是 :=
func isUserVariable(query string, start, end int) bool {
	rest := strings.TrimLeft(query[end:], " \t\r\n")
	if strings.HasPrefix(rest, ":=") {
		return true
	}
	before := strings.TrimRight(query[:start], " \t\r\n")
	if len(before) < 3 || !strings.EqualFold(before[len(before)-3:], "SET") {
		return false
	}
	return len(before) == 3 || !isIdent(before[len(before)-4])
}

// placeholder n 从 1 开始
func placeholder(bindType int, n int) string {
	switch bindType {
	case sqlx.DOLLAR:
		return "$" + strconv.Itoa(n)
	case sqlx.AT:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
