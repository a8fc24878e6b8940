package main

import "go.uber.org/zap"

// Toast severities understood by the UI renderer.
const (
	ToastInfo    = "info"
	ToastSuccess = "success"
	ToastError   = "error"
)

// Notifier receives the state changes the UI renderer needs to redraw:
// the now-playing display and toast notifications.
type Notifier interface {
	NowPlaying(station Station, playing bool)
	Toast(message string, severity string)
}

// logNotifier is the default sink when no UI is attached.
type logNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) NowPlaying(station Station, playing bool) {
	n.logger.Info("now playing changed",
		zap.String("station", station.Name),
		zap.String("country", station.Country),
		zap.Bool("playing", playing),
	)
}

func (n *logNotifier) Toast(message string, severity string) {
	if severity == ToastError {
		n.logger.Warn("toast", zap.String("message", message))
		return
	}
	n.logger.Info("toast", zap.String("message", message))
}
