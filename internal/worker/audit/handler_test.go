package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/testutil/testdoubles"
)

func TestDelay(t *testing.T) {
	end := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		at    time.Time
		days  int
		hours int
	}{
		{name: "before end", at: end.Add(-time.Hour), days: 0, hours: 0},
		{name: "few hours", at: end.Add(5*time.Hour + 30*time.Minute), days: 0, hours: 5},
		{name: "days and hours", at: end.Add(50 * time.Hour), days: 2, hours: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, hours := Delay(end, tt.at)
			assert.Equal(t, tt.days, days)
			assert.Equal(t, tt.hours, hours)
		})
	}
}

func TestHandle_Overdue(t *testing.T) {
	logger := testdoubles.NewLoggerSpy()
	end := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(domain.ContractEventPayload{
		ContractID: 7,
		VehicleID:  3,
		ClientID:   2,
		From:       domain.ContractOngoing,
		To:         domain.ContractOverdue,
		EndDate:    end,
		RunID:      "run-1",
		OccurredAt: end.Add(26 * time.Hour),
	})
	require.NoError(t, err)

	err = NewHandler(logger).Handle(context.Background(), &domain.Event{
		ID:      uuid.New(),
		Type:    domain.EventContractOverdue,
		Payload: payload,
	})

	require.NoError(t, err)
	assert.True(t, logger.Contains("warn", "contract id=7"))
	assert.True(t, logger.Contains("warn", "overdue by 1 days 2 hours"))
}

func TestHandle_InvalidPayload(t *testing.T) {
	err := NewHandler(testdoubles.NewLoggerSpy()).Handle(context.Background(), &domain.Event{
		ID:      uuid.New(),
		Type:    domain.EventContractCancelled,
		Payload: []byte("{"),
	})

	assert.ErrorIs(t, err, ErrInvalidPayload)
}
