package domain

import (
	"fmt"
	"math"
	"time"
)

// Trip is a saved plan owned by a user, as listed on the dashboard.
type Trip struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   *Date      `json:"start_date"`
	EndDate     *Date      `json:"end_date"`
	Roadmap     *Itinerary `json:"roadmap,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DurationDays returns the number of days between start and end, or 0 when
// either is unknown.
func (t *Trip) DurationDays() int {
	if t.StartDate == nil || t.EndDate == nil {
		return 0
	}
	diff := math.Abs(t.EndDate.Sub(t.StartDate.Time).Hours())
	return int(math.Ceil(diff / 24))
}

// TimeUntil renders how far away start is from now, e.g. "Tomorrow" or "3 months".
func TimeUntil(start Date, now time.Time) string {
	days := int(math.Ceil(start.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return "Past trip"
	case days == 0:
		return "Today!"
	case days == 1:
		return "Tomorrow"
	case days < 30:
		return fmt.Sprintf("%d days", days)
	case days < 365:
		return fmt.Sprintf("%d months", int(math.Ceil(float64(days)/30)))
	default:
		return fmt.Sprintf("%d years", int(math.Ceil(float64(days)/365)))
	}
}

// SpanFromRoadmap derives start and end dates from the dated days of a roadmap.
func SpanFromRoadmap(it *Itinerary) (start, end *Date) {
	if it == nil {
		return nil, nil
	}
	for _, d := range it.Days {
		if d.Date == nil {
			continue
		}
		if start == nil {
			start = DatePtr(*d.Date)
		}
		end = DatePtr(*d.Date)
	}
	return start, end
}
