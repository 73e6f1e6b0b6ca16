package notify

import "github.com/meowstock/paper-trading/internal/logger"

// Notifier surfaces user-visible events from background activity, the order
// monitor in particular. Implementations are fire-and-forget: a failing sink
// must never block or abort trading logic.
type Notifier interface {
	Notify(message, detail string)
}

// LogNotifier is the default sink; it writes notifications to the log.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(logger logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) Notify(message, detail string) {
	n.logger.Infof("%s: %s", message, detail)
}
