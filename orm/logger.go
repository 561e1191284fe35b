package orm

// FailureLogger 记录与数据库交互失败的信息
// 数据库本身可能已经不可用了，所以实现不应该再依赖数据库，例如 filelog.Logger
type FailureLogger interface {
	Log(msg string, err error) error
}

type FailureLoggerFunc func(msg string, err error) error

func (f FailureLoggerFunc) Log(msg string, err error) error {
	return f(msg, err)
}

type nopLogger struct{}

func (nopLogger) Log(string, error) error {
	return nil
}
