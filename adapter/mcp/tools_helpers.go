package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
)

var errNoDatabase = errors.New("timeline tools require a database connection")

var timeNow = time.Now

func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return parsed, nil
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// options applies the recalculation defaults: locks respected unless
// explicitly turned off.
func options(respectLocks *bool, distribution string) domain.Options {
	opts := domain.Options{RespectLocks: true, Distribution: domain.Distribution(distribution)}
	if respectLocks != nil {
		opts.RespectLocks = *respectLocks
	}
	return opts
}
