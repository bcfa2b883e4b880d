package reconciliation

import "time"

// Названия проходов (метка pass в метриках)
const (
	PassAging    = "aging"
	PassBlocking = "blocking"
)

// Результаты обработки (метка result в метриках)
const (
	ResultSuccess = "success"
	ResultSkipped = "skipped"
	ResultError   = "error"
	ResultPartial = "partial"
)

// PassReport итог одного прохода
type PassReport struct {
	Candidates int     `json:"candidates"`
	Changed    []int64 `json:"changed"`
	Skipped    []int64 `json:"skipped"`
	Failed     []int64 `json:"failed"`
	Error      string  `json:"error,omitempty"`
}

// Report итог запуска сверки
type Report struct {
	RunID      string     `json:"runId"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
	Aging      PassReport `json:"aging"`
	Blocking   PassReport `json:"blocking"`
}

// Result общий результат запуска для метрик
func (r *Report) Result() string {
	switch {
	case r.Aging.Error != "" || r.Blocking.Error != "":
		return ResultError
	case len(r.Aging.Failed) > 0 || len(r.Blocking.Failed) > 0:
		return ResultPartial
	default:
		return ResultSuccess
	}
}

func newPassReport() PassReport {
	return PassReport{
		Changed: make([]int64, 0),
		Skipped: make([]int64, 0),
		Failed:  make([]int64, 0),
	}
}
