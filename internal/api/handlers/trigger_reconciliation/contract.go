package trigger_reconciliation

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/worker/reconciliation"
)

type Scheduler interface {
	RunOnce(ctx context.Context) (*reconciliation.Report, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
