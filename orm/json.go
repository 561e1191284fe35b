package orm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/coderi421/rapper/orm/internal/errs"
	"github.com/google/uuid"
)

// QueryJSON 执行 SQL，把结果转换成 JSON 数组，每一行是一个 列名 -> 值 的对象
// 没有数据的时候返回 "[]"；[]byte 会被当成字符串
// 与 RawQuery 一样，SQL 只能是可信的语句
func QueryJSON(ctx context.Context, sess Session, query string, args ...any) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errs.ErrEmptyStatement
	}
	c := sess.getCore()
	qc := &QueryContext{
		ID:   uuid.NewString(),
		Type: "RAW",
		Builder: &RawQuerier[struct{}]{
			builder: builder{core: c},
			sess:    sess,
			sql:     query,
			args:    args,
		},
	}
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return jsonHandler(ctx, sess, c, qc)
	}
	res := c.chain(root)(ctx, qc)
	if res.Err != nil {
		return "", res.Err
	}
	s, _ := res.Result.(string)
	return s, nil
}

func jsonHandler(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	query, args, err := c.statement(qc)
	if err != nil {
		return &QueryResult{Err: err}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	rows, err := sess.queryContext(ctx, query, args...)
	if err != nil {
		return &QueryResult{Err: c.transportErr(qc, err)}
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]map[string]any, 0, 8)
	for rows.Next() {
		row := make(map[string]any)
		if err = rows.MapScan(row); err != nil {
			return &QueryResult{Err: c.transportErr(qc, err)}
		}
		for k, v := range row {
			// 文本协议的驱动会把所有的值都返回成 []byte，json 会把它编码成 base64
			if bs, ok := v.([]byte); ok {
				row[k] = string(bs)
			}
		}
		results = append(results, row)
	}
	if err = rows.Err(); err != nil {
		return &QueryResult{Err: c.transportErr(qc, err)}
	}

	data, err := json.Marshal(results)
	if err != nil {
		return &QueryResult{Err: err}
	}
	return &QueryResult{Result: string(data)}
}
