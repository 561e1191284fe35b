package filelog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTitle = "File Logger for MyBusiness.App"
	timeLayout   = "2006-01-02 15:04:05"
)

// Logger 把失败信息追加到 Dir/File 里面
// 文件第一次创建的时候写入标题，每一条记录之间空一行
type Logger struct {
	Title string
	Dir   string
	File  string

	mu  sync.Mutex
	now func() time.Time
}

type Option func(l *Logger)

// WithTitle 文件第一行的标题
func WithTitle(title string) Option {
	return func(l *Logger) {
		l.Title = title
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

func NewLogger(dir, file string, opts ...Option) *Logger {
	l := &Logger{
		Title: DefaultTitle,
		Dir:   dir,
		File:  file,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location 日志文件的完整路径
func (l *Logger) Location() string {
	return filepath.Join(l.Dir, l.File)
}

// Log 写入一条记录，err 可以为 nil
func (l *Logger) Log(msg string, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.File == "" {
		return errors.New("filelog: file name is empty")
	}
	if l.Dir != "" {
		if e := os.MkdirAll(l.Dir, 0o755); e != nil {
			return e
		}
	}
	if e := l.createFile(); e != nil {
		return e
	}

	f, e := os.OpenFile(l.Location(), os.O_WRONLY|os.O_APPEND, 0o666)
	if e != nil {
		return e
	}
	defer func() {
		_ = f.Close()
	}()
	_, e = f.WriteString(l.entry(msg, err))
	return e
}

// createFile 只有文件不存在的时候才会写标题
func (l *Logger) createFile() error {
	f, err := os.OpenFile(l.Location(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	_, err = fmt.Fprintf(f, "%s\n\n", l.Title)
	return err
}

func (l *Logger) entry(msg string, err error) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s : %s\n", l.now().Format(timeLayout), msg))
	if err != nil {
		sb.WriteString(fmt.Sprintf("EXCEPTION MESSAGE : %s\n", err.Error()))
		inner := ""
		if cause := errors.Unwrap(err); cause != nil {
			inner = cause.Error()
		}
		sb.WriteString(fmt.Sprintf("INNER EXCEPTION : %s\n", inner))
	}
	sb.WriteString("\n")
	return sb.String()
}
