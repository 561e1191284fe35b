package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coderi421/rapper/orm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    *Config
		wantErr bool
	}{
		{
			name: "full",
			content: `
driver: mysql
dsn: root:root@tcp(localhost:3306)/app
cmd_timeout: 5s
logger:
  dir: /var/log/app
  file: errors.txt
  title: File Logger for App
tracing:
  exporter: zipkin
  endpoint: http://localhost:9411/api/v2/spans
metrics:
  addr: ":8082"
`,
			want: &Config{
				Driver:     "mysql",
				DSN:        "root:root@tcp(localhost:3306)/app",
				CmdTimeout: 5 * time.Second,
				Logger:     LoggerConfig{Dir: "/var/log/app", File: "errors.txt", Title: "File Logger for App"},
				Tracing:    TracingConfig{Exporter: "zipkin", Endpoint: "http://localhost:9411/api/v2/spans"},
				Metrics:    MetricsConfig{Addr: ":8082"},
			},
		},
		{
			// 没有配置的使用默认值
			name:    "defaults",
			content: "dsn: file:app.db\n",
			want: &Config{
				Driver:     "sqlite3",
				DSN:        "file:app.db",
				CmdTimeout: 30 * time.Second,
			},
		},
		{
			name:    "no dsn",
			content: "driver: mysql\n",
			wantErr: true,
		},
		{
			name:    "unknown exporter",
			content: "dsn: x\ntracing:\n  exporter: skywalking\n",
			wantErr: true,
		},
		{
			name:    "exporter without endpoint",
			content: "dsn: x\ntracing:\n  exporter: jaeger\n",
			wantErr: true,
		},
		{
			name:    "logger without file",
			content: "dsn: x\nlogger:\n  dir: /tmp\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			content: "dsn: [",
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rapper.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))
			cfg, err := LoadConfig(path)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	db, err := openDB(&Config{
		Driver:     "sqlite3",
		DSN:        "file:cmd.db?cache=shared&mode=memory",
		CmdTimeout: time.Second,
		Logger:     LoggerConfig{Dir: dir, File: "errors.txt"},
	}, false, prometheus.NewRegistry())
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), db, "SELECT 1 AS One, 'a' AS Name", &out))
	assert.JSONEq(t, `[{"Name":"a","One":1}]`, out.String())

	err = run(context.Background(), db, "", &out)
	assert.ErrorIs(t, err, orm.ErrValidation)

	// 失败的查询写到日志文件里面
	err = run(context.Background(), db, "SELECT * FROM Missing", &out)
	assert.ErrorIs(t, err, orm.ErrTransport)
	data, err := os.ReadFile(filepath.Join(dir, "errors.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Failed to Read Sql.")
	assert.Contains(t, string(data), "no such table: Missing")
}

func TestNewTracerProvider(t *testing.T) {
	testCases := []struct {
		name string
		cfg  TracingConfig
	}{
		{name: "none"},
		{name: "jaeger", cfg: TracingConfig{Exporter: "jaeger", Endpoint: "http://localhost:14268/api/traces"}},
		{name: "zipkin", cfg: TracingConfig{Exporter: "zipkin", Endpoint: "http://localhost:9411/api/v2/spans"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tp, err := newTracerProvider(tc.cfg)
			require.NoError(t, err)
			assert.NotNil(t, tp)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		})
	}
}

// 查询失败的时候 execute 返回错误，而不是直接退出进程
func TestExecute(t *testing.T) {
	cfg := &Config{
		Driver:     "sqlite3",
		DSN:        "file:execute.db?cache=shared&mode=memory",
		CmdTimeout: time.Second,
	}
	var out bytes.Buffer
	err := execute(context.Background(), cfg, "SELECT 2 AS Two", false, prometheus.NewRegistry(), &out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"Two":2}]`, out.String())

	err = execute(context.Background(), cfg, "SELECT * FROM Missing", true, prometheus.NewRegistry(), &out)
	assert.ErrorIs(t, err, orm.ErrTransport)

	cfg.Driver = "oracle"
	err = execute(context.Background(), cfg, "SELECT 1", false, prometheus.NewRegistry(), &out)
	assert.Error(t, err)
}
