package vacation

import (
	"time"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/models"
)

// Window returns the accounting period containing on as [start, end).
func Window(d models.DurationType, on models.Date) (start, end models.Date) {
	if d == models.DurationYearly {
		start = models.NewDate(on.Year(), time.January, 1)
		return start, models.NewDate(on.Year()+1, time.January, 1)
	}
	start = models.NewDate(on.Year(), on.Month(), 1)
	return start, models.DateOf(start.AddDate(0, 1, 0))
}

// Days counts calendar days from start to end inclusive.
func Days(start, end models.Date) (int, error) {
	if end.Before(start.Time) {
		return 0, apperr.ErrInvalidDateRange
	}
	return int(end.Sub(start.Time).Hours()/24) + 1, nil
}

// CheckAllowance rejects a request that would take usage past maxDays.
func CheckAllowance(used, requested, maxDays int) error {
	if used+requested > maxDays {
		return apperr.ErrExceedTotalAllowedDays
	}
	return nil
}
