package export

import "log/slog"

// LogNotifier reports export progress through a slog logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) Loading(msg string) Handle {
	n.logger().Info(msg)
	return logHandle{n.logger()}
}

func (n LogNotifier) Success(msg string) { n.logger().Info(msg) }

func (n LogNotifier) Failure(msg string) { n.logger().Error(msg) }

type logHandle struct {
	logger *slog.Logger
}

func (h logHandle) Update(msg string) { h.logger.Info(msg) }

func (h logHandle) Dismiss() {}
