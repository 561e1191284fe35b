package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// CmdTimeout 例如 30s，0 表示不限制
	CmdTimeout time.Duration `yaml:"cmd_timeout"`
	Logger     LoggerConfig  `yaml:"logger"`
	Tracing    TracingConfig `yaml:"tracing"`
	Metrics    MetricsConfig `yaml:"metrics"`
}

type LoggerConfig struct {
	Dir   string `yaml:"dir"`
	File  string `yaml:"file"`
	Title string `yaml:"title"`
}

type TracingConfig struct {
	// Exporter jaeger 或者 zipkin，为空的时候不上报
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

type MetricsConfig struct {
	// Addr 例如 :8082，为空的时候不暴露 /metrics
	Addr string `yaml:"addr"`
}

func defaultConfig() *Config {
	return &Config{
		Driver:     "sqlite3",
		CmdTimeout: 30 * time.Second,
	}
}

// LoadConfig 没有出现在文件里面的配置项使用默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("rapper: parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.DSN == "" {
		return errors.New("rapper: dsn is required")
	}
	switch c.Tracing.Exporter {
	case "":
	case "jaeger", "zipkin":
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("rapper: %s exporter needs an endpoint", c.Tracing.Exporter)
		}
	default:
		return fmt.Errorf("rapper: unknown tracing exporter %s", c.Tracing.Exporter)
	}
	if c.Logger.Dir != "" && c.Logger.File == "" {
		return errors.New("rapper: logger file is required when logger dir is set")
	}
	return nil
}
