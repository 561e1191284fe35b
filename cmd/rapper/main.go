package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coderi421/rapper/filelog"
	"github.com/coderi421/rapper/orm"
	"github.com/coderi421/rapper/orm/middlewares/opentelemetry"
	"github.com/coderi421/rapper/orm/middlewares/prometheus"
	"github.com/coderi421/rapper/orm/middlewares/querylog"
	"github.com/coderi421/rapper/orm/middlewares/recover"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "rapper"

func main() {
	cfgPath := flag.String("config", "rapper.yaml", "配置文件路径")
	query := flag.String("sql", "", "要执行的 SQL，结果以 JSON 输出")
	verbose := flag.Bool("v", false, "输出执行的 SQL")
	flag.Parse()

	cfg, err := LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalln(err)
	}
	// 在 execute 返回之后才退出，span 和连接都已经释放
	if err = execute(context.Background(), cfg, *query, *verbose, promclient.DefaultRegisterer, os.Stdout); err != nil {
		log.Fatalln(err)
	}
}

// execute 执行一次查询，返回之前关闭 DB 并且上报剩余的 span
func execute(ctx context.Context, cfg *Config, query string, verbose bool,
	reg promclient.Registerer, out io.Writer) error {
	tp, err := newTracerProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsHandler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Println(err)
			}
		}()
		defer func() {
			_ = srv.Close()
		}()
	}

	db, err := openDB(cfg, verbose, reg)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	return run(ctx, db, query, out)
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func openDB(cfg *Config, verbose bool, reg promclient.Registerer) (*orm.DB, error) {
	mdls := []orm.Middleware{
		(&recover.MiddlewareBuilder{
			LogFunc: func(qc *orm.QueryContext, err any) {
				log.Printf("panic: %s %v", qc.ID, err)
			},
		}).Build(),
		(&opentelemetry.MiddlewareBuilder{}).Build(),
		prometheus.MiddlewareBuilder{
			Namespace:  serviceName,
			Subsystem:  "orm",
			Name:       "query_duration",
			Help:       "query duration in microseconds",
			Registerer: reg,
		}.Build(),
	}
	if verbose {
		mdls = append(mdls, querylog.NewBuilder().Build())
	}

	opts := []orm.DBOption{
		orm.DBWithCmdTimeout(cfg.CmdTimeout),
		orm.DBWithMiddlewares(mdls...),
	}
	if cfg.Logger.File != "" {
		var lopts []filelog.Option
		if cfg.Logger.Title != "" {
			lopts = append(lopts, filelog.WithTitle(cfg.Logger.Title))
		}
		opts = append(opts, orm.DBWithFailureLogger(filelog.NewLogger(cfg.Logger.Dir, cfg.Logger.File, lopts...)))
	}
	return orm.Open(cfg.Driver, cfg.DSN, opts...)
}

func run(ctx context.Context, db *orm.DB, query string, out io.Writer) error {
	res, err := orm.QueryJSON(ctx, db, query)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, res)
	return err
}

func newTracerProvider(cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	}
	var (
		exp sdktrace.SpanExporter
		err error
	)
	switch cfg.Exporter {
	case "jaeger":
		exp, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	case "zipkin":
		exp, err = zipkin.New(cfg.Endpoint)
	}
	if err != nil {
		return nil, err
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}
