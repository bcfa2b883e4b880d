package trigger_reconciliation

import (
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
)

type Handler struct {
	scheduler Scheduler
	logger    Logger
}

func NewHandler(scheduler Scheduler, logger Logger) *Handler {
	return &Handler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// Handle POST /api/v1/admin/reconciliation
// Запускает сверку сейчас; если она уже идёт, возвращает отчёт текущего запуска
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	report, err := h.scheduler.RunOnce(r.Context())
	if err != nil {
		if report == nil {
			h.logger.Error("POST /admin/reconciliation - Run failed: %v", err)
			handlers.RespondInternalError(w)
			return
		}
		// отчёт есть, но какой-то проход не выбрал кандидатов
		h.logger.Error("POST /admin/reconciliation - Run %s finished with errors: %v", report.RunID, err)
		handlers.RespondJSON(w, http.StatusInternalServerError, report)
		return
	}

	h.logger.Info("POST /admin/reconciliation - Run %s finished: overdue=%d, cancelled=%d",
		report.RunID, len(report.Aging.Changed), len(report.Blocking.Changed))
	handlers.RespondJSON(w, http.StatusOK, report)
}
