package services

import (
	"testing"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculateLeadTime(t *testing.T) {
	today := domain.Date(2026, 1, 2)

	tests := []struct {
		name       string
		event      int
		wantMonths int
		wantScale  float64
	}{
		{"six months", 180, 6, 0.5},
		{"partial month rounds up", 181, 7, 7.0 / 12},
		{"one day", 1, 1, 1.0 / 12},
		{"full horizon", 360, 12, 1},
		{"beyond horizon", 540, 18, 1.5},
		{"today", 0, 0, 0},
		{"past event", -10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := CalculateLeadTime(domain.AddDays(today, tt.event), today, 12)
			assert.Equal(t, tt.event, lt.Days)
			assert.Equal(t, tt.wantMonths, lt.Months)
			assert.InDelta(t, tt.wantScale, lt.ScaleFactor, 1e-9)
		})
	}
}

func TestCalculateLeadTime_DefaultHorizon(t *testing.T) {
	today := domain.Date(2026, 1, 2)
	lt := CalculateLeadTime(domain.AddDays(today, 90), today, 0)
	assert.InDelta(t, 0.25, lt.ScaleFactor, 1e-9)
}
