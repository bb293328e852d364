package usecase

import (
	"time"

	"go.uber.org/zap"
)

// Clock returns the current time; tests pin it.
type Clock func() time.Time

// Timer is the handle of one armed callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms deferred callbacks for reminders.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallScheduler struct{}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemNotifier raises a best-effort OS level alert for users who granted
// permission.
type SystemNotifier interface {
	Notify(userID, title, message string) error
}

type logNotifier struct {
	log *zap.Logger
}

func newLogNotifier(log *zap.Logger) *logNotifier {
	return &logNotifier{log: log.With(zap.String("notifier", "system"))}
}

func (n *logNotifier) Notify(userID, title, message string) error {
	n.log.Info("System notification",
		zap.String("user_id", userID),
		zap.String("title", title),
		zap.String("message", message))
	return nil
}
