package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockroom/internal/model"
	"stockroom/internal/repository"
	"stockroom/internal/stock"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
)

// HistoryLimit caps the number of movements returned for one window.
const HistoryLimit = 1000

// History range keys.
const (
	RangeToday  = "today"
	RangeWeek   = "7d"
	RangeMonth  = "30d"
	RangeCustom = "custom"
)

// movementService implements MovementService.
type movementService struct {
	movementRepo repository.MovementRepository
	location     *time.Location
	now          func() time.Time
	logger       zerolog.Logger
}

// NewMovementService creates a new movement service. Day boundaries are
// computed in loc.
func NewMovementService(movementRepo repository.MovementRepository, loc *time.Location, logger zerolog.Logger) MovementService {
	if loc == nil {
		loc = time.UTC
	}
	return &movementService{
		movementRepo: movementRepo,
		location:     loc,
		now:          time.Now,
		logger:       logger.With().Str("service", "movement").Logger(),
	}
}

// History retrieves up to HistoryLimit movements in the window, newest
// first, with summary statistics.
func (s *movementService) History(ctx context.Context, rangeKey, from, to string) (*model.MovementHistory, error) {
	start, end, err := s.window(rangeKey, from, to)
	if err != nil {
		return nil, err
	}

	rows, err := s.movementRepo.List(ctx, start, end, HistoryLimit)
	if err != nil {
		s.logger.Error().Err(err).
			Time("from", start).
			Time("to", end).
			Msg("failed to list movements")
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	return &model.MovementHistory{
		From:  start,
		To:    end,
		Rows:  rows,
		Stats: stock.Summarize(rows),
	}, nil
}

// window resolves a range key to [start, end]. Preset ranges end now and
// start at midnight; a custom range runs from the start of its first day
// to the last second of its last day, each bound defaulting to now.
func (s *movementService) window(rangeKey, from, to string) (time.Time, time.Time, error) {
	now := s.now().In(s.location)
	end := now

	switch strings.TrimSpace(rangeKey) {
	case RangeToday:
		return startOfDay(now), end, nil
	case RangeWeek, "":
		return startOfDay(now.AddDate(0, 0, -7)), end, nil
	case RangeMonth:
		return startOfDay(now.AddDate(0, 0, -30)), end, nil
	case RangeCustom:
	default:
		return time.Time{}, time.Time{}, model.NewDomainError(model.ErrCodeValidation,
			fmt.Sprintf("unknown range %q (use today, 7d, 30d or custom)", rangeKey))
	}

	start := now
	if from = strings.TrimSpace(from); from != "" {
		t, err := dateparse.ParseIn(from, s.location)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewDomainError(model.ErrCodeValidation,
				fmt.Sprintf("invalid from date %q", from))
		}
		start = startOfDay(t)
	}
	if to = strings.TrimSpace(to); to != "" {
		t, err := dateparse.ParseIn(to, s.location)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewDomainError(model.ErrCodeValidation,
				fmt.Sprintf("invalid to date %q", to))
		}
		end = endOfDay(t)
	}

	return start, end, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
