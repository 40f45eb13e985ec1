package queue

import (
	"fmt"
	"os"

	"github.com/pawdesk/pawdesk/internal/logging"
)

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct{}

func newAsynqLogger() asynqLogger { return asynqLogger{} }

func (asynqLogger) Debug(args ...interface{}) {
	logging.Debug(fmt.Sprint(args...), "component", "asynq")
}

func (asynqLogger) Info(args ...interface{}) {
	logging.Info(fmt.Sprint(args...), "component", "asynq")
}

func (asynqLogger) Warn(args ...interface{}) {
	logging.Warn(fmt.Sprint(args...), "component", "asynq")
}

func (asynqLogger) Error(args ...interface{}) {
	logging.Error(fmt.Sprint(args...), "component", "asynq")
}

func (asynqLogger) Fatal(args ...interface{}) {
	logging.Error(fmt.Sprint(args...), "component", "asynq")
	os.Exit(1)
}
