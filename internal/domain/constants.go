package domain

// Business validation constants
const (
	MinClientAge           = 18
	MaxNameLength          = 100
	MaxLicenseNumberLength = 50
	MaxPlateLength         = 20
	DefaultListLimit       = 100
)

// Time format constants
const (
	DateFormat     = "2006-01-02" // YYYY-MM-DD
	DateTimeFormat = "2006-01-02T15:04:05Z07:00"
)

// NonTerminalStatuses статусы, удерживающие автомобиль (учитываются при поиске конфликтов)
var NonTerminalStatuses = []ContractStatus{
	ContractPending,
	ContractOngoing,
	ContractOverdue,
}

// TerminalStatuses статусы, после которых контракт больше не меняется
var TerminalStatuses = []ContractStatus{
	ContractCompleted,
	ContractCancelled,
}

// StatusStrings конвертирует статусы в строки для squirrel.Eq
func StatusStrings(statuses []ContractStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
