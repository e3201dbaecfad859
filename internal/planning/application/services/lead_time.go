package services

import (
	"math"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
)

// DaysPerMonth is the month length used for lead-time arithmetic.
const DaysPerMonth = 30

// LeadTime is the distance from today to the event.
type LeadTime struct {
	Days        int
	Months      int
	ScaleFactor float64
}

// CalculateLeadTime rounds the days until the event up to whole 30-day months
// and relates them to the canonical horizon. Past events give zero months and
// a zero scale factor.
func CalculateLeadTime(eventDate, today time.Time, horizonMonths int) LeadTime {
	if horizonMonths <= 0 {
		horizonMonths = DefaultEngineConfig().CanonicalHorizonMonths
	}

	days := domain.DaysBetween(today, eventDate)
	months := 0
	if days > 0 {
		months = int(math.Ceil(float64(days) / DaysPerMonth))
	}

	return LeadTime{
		Days:        days,
		Months:      months,
		ScaleFactor: float64(months) / float64(horizonMonths),
	}
}
