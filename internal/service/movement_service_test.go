package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockroom/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMovementService_Window(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, loc)

	svc := NewMovementService(new(MockMovementRepository), loc, zerolog.Nop()).(*movementService)
	svc.now = func() time.Time { return now }

	tests := []struct {
		name          string
		rangeKey      string
		from          string
		to            string
		expectedStart time.Time
		expectedEnd   time.Time
		expectError   bool
	}{
		{
			name:          "Today starts at midnight",
			rangeKey:      RangeToday,
			expectedStart: time.Date(2026, 3, 15, 0, 0, 0, 0, loc),
			expectedEnd:   now,
		},
		{
			name:          "Seven days",
			rangeKey:      RangeWeek,
			expectedStart: time.Date(2026, 3, 8, 0, 0, 0, 0, loc),
			expectedEnd:   now,
		},
		{
			name:          "Empty key defaults to seven days",
			rangeKey:      "",
			expectedStart: time.Date(2026, 3, 8, 0, 0, 0, 0, loc),
			expectedEnd:   now,
		},
		{
			name:          "Thirty days",
			rangeKey:      RangeMonth,
			expectedStart: time.Date(2026, 2, 13, 0, 0, 0, 0, loc),
			expectedEnd:   now,
		},
		{
			name:          "Custom range covers whole days",
			rangeKey:      RangeCustom,
			from:          "2026-03-01",
			to:            "2026-03-03",
			expectedStart: time.Date(2026, 3, 1, 0, 0, 0, 0, loc),
			expectedEnd:   time.Date(2026, 3, 3, 23, 59, 59, 0, loc),
		},
		{
			name:          "Custom dates are parsed leniently",
			rangeKey:      RangeCustom,
			from:          "03/01/2026",
			to:            "March 3, 2026",
			expectedStart: time.Date(2026, 3, 1, 0, 0, 0, 0, loc),
			expectedEnd:   time.Date(2026, 3, 3, 23, 59, 59, 0, loc),
		},
		{
			name:          "Missing custom bounds default to now",
			rangeKey:      RangeCustom,
			expectedStart: now,
			expectedEnd:   now,
		},
		{
			name:        "Unparsable custom date",
			rangeKey:    RangeCustom,
			from:        "not a date",
			expectError: true,
		},
		{
			name:        "Unknown range",
			rangeKey:    "90d",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := svc.window(tt.rangeKey, tt.from, tt.to)

			if tt.expectError {
				var domainErr *model.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, model.ErrCodeValidation, domainErr.Code)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.expectedStart.Equal(start), "start: got %s", start)
			assert.True(t, tt.expectedEnd.Equal(end), "end: got %s", end)
		})
	}
}

func TestMovementService_History(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMovementRepository)
	svc := NewMovementService(repo, time.UTC, zerolog.Nop())

	rows := []model.MovementView{
		{Movement: model.Movement{Change: 10, Reason: model.ReasonRestock}, ProductName: strPtr("Tea")},
		{Movement: model.Movement{Change: -3, Reason: model.ReasonSale}, ProductName: strPtr("Tea")},
		{Movement: model.Movement{Change: -1, Reason: model.ReasonAdjust}, ProductName: strPtr("Rice")},
	}
	repo.On("List", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time"), HistoryLimit).
		Return(rows, nil)

	history, err := svc.History(ctx, RangeToday, "", "")

	require.NoError(t, err)
	assert.Len(t, history.Rows, 3)
	assert.Equal(t, model.MovementStats{
		Total:      3,
		Restock:    10,
		Sale:       3,
		Adjust:     -1,
		Net:        6,
		TopProduct: "Tea",
		TopVolume:  13,
	}, history.Stats)
	assert.False(t, history.To.Before(history.From))
	repo.AssertExpectations(t)
}

func TestMovementService_HistoryError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMovementRepository)
	svc := NewMovementService(repo, nil, zerolog.Nop())

	repo.On("List", ctx, mock.Anything, mock.Anything, HistoryLimit).Return(nil, errors.New("database error"))

	_, err := svc.History(ctx, RangeWeek, "", "")
	assert.Error(t, err)

	_, err = svc.History(ctx, "yesterday", "", "")
	assert.Error(t, err)
	repo.AssertNumberOfCalls(t, "List", 1)
}
