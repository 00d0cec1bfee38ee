package domain

import (
	"fmt"
	"slices"
)

// Itinerary is the day-by-day roadmap for a trip.
type Itinerary struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Days        []Day       `json:"days"`
	MapViewport MapViewport `json:"mapViewport"`
}

// Day is one entry of an itinerary. Day is its sequence position.
type Day struct {
	Day        int        `json:"day"`
	Date       *Date      `json:"date"`
	Summary    string     `json:"summary"`
	Activities []Activity `json:"activities"`
}

// Activity is a single scheduled item within a day. Time is free text.
type Activity struct {
	Title       string       `json:"title"`
	Time        string       `json:"time"`
	Location    string       `json:"location"`
	Description string       `json:"description,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// NextDayIndex returns max(existing)+1, or 1 for an empty itinerary.
func (it *Itinerary) NextDayIndex() int {
	if it == nil {
		return 1
	}
	next := 1
	for _, d := range it.Days {
		if d.Day >= next {
			next = d.Day + 1
		}
	}
	return next
}

// LastDate returns the date of the last dated day.
func (it *Itinerary) LastDate() (Date, bool) {
	if it == nil {
		return Date{}, false
	}
	for i := len(it.Days) - 1; i >= 0; i-- {
		if it.Days[i].Date != nil {
			return *it.Days[i].Date, true
		}
	}
	return Date{}, false
}

// HasDays reports whether the itinerary exists and has at least one day.
func (it *Itinerary) HasDays() bool {
	return it != nil && len(it.Days) > 0
}

// AppendDay appends d under the next unused day index and returns that index.
func (it *Itinerary) AppendDay(d Day) int {
	d.Day = it.NextDayIndex()
	it.Days = append(it.Days, d)
	return d.Day
}

// Bounds returns the box around every located activity, and false when
// no activity has coordinates.
func (it *Itinerary) Bounds() (Bounds, bool) {
	var b Bounds
	found := false
	if it == nil {
		return b, false
	}
	for _, d := range it.Days {
		for _, a := range d.Activities {
			if a.Coordinates == nil {
				continue
			}
			if !found {
				b = Bounds{MinLat: a.Coordinates.Lat(), MinLon: a.Coordinates.Lon(), MaxLat: a.Coordinates.Lat(), MaxLon: a.Coordinates.Lon()}
				found = true
				continue
			}
			b = b.Extend(*a.Coordinates)
		}
	}
	return b, found
}

// Clone returns a deep copy. A nil itinerary clones to nil.
func (it *Itinerary) Clone() *Itinerary {
	if it == nil {
		return nil
	}
	out := *it
	out.Days = make([]Day, len(it.Days))
	for i, d := range it.Days {
		out.Days[i] = d.clone()
	}
	return &out
}

func (d Day) clone() Day {
	out := d
	if d.Date != nil {
		date := *d.Date
		out.Date = &date
	}
	out.Activities = make([]Activity, len(d.Activities))
	for i, a := range d.Activities {
		if a.Coordinates != nil {
			c := *a.Coordinates
			a.Coordinates = &c
		}
		out.Activities[i] = a
	}
	return out
}

// Validate checks the document invariants: positive unique day indexes,
// strictly increasing dates and coordinates within range.
func (it *Itinerary) Validate() error {
	if it == nil {
		return nil
	}
	seen := make(map[int]struct{}, len(it.Days))
	var prev *Date
	for i, d := range it.Days {
		if d.Day <= 0 {
			return fmt.Errorf("%w: days[%d].day must be positive, got %d", ErrValidation, i, d.Day)
		}
		if _, dup := seen[d.Day]; dup {
			return fmt.Errorf("%w: duplicate day %d", ErrValidation, d.Day)
		}
		seen[d.Day] = struct{}{}

		if d.Date != nil {
			if prev != nil && !d.Date.After(prev.Time) {
				return fmt.Errorf("%w: day %d date %s is not after %s", ErrValidation, d.Day, d.Date, prev)
			}
			prev = d.Date
		}

		for j, a := range d.Activities {
			if a.Coordinates != nil && !a.Coordinates.Valid() {
				return fmt.Errorf("%w: day %d activity %d coordinates %v out of range", ErrValidation, d.Day, j, *a.Coordinates)
			}
		}
	}
	if !it.MapViewport.Center.Valid() {
		return fmt.Errorf("%w: map viewport center %v out of range", ErrValidation, it.MapViewport.Center)
	}
	return nil
}

// Extends reports whether it keeps every day of prev, in the same order,
// as a prefix. Anything extends an absent itinerary.
func (it *Itinerary) Extends(prev *Itinerary) bool {
	if prev == nil || len(prev.Days) == 0 {
		return true
	}
	if it == nil || len(it.Days) < len(prev.Days) {
		return false
	}
	for i, d := range prev.Days {
		if !sameDay(it.Days[i], d) {
			return false
		}
	}
	return true
}

func sameDay(a, b Day) bool {
	if a.Day != b.Day || a.Summary != b.Summary {
		return false
	}
	if (a.Date == nil) != (b.Date == nil) || (a.Date != nil && !a.Date.Equal(b.Date.Time)) {
		return false
	}
	return slices.EqualFunc(a.Activities, b.Activities, func(x, y Activity) bool {
		if x.Title != y.Title || x.Time != y.Time || x.Location != y.Location || x.Description != y.Description {
			return false
		}
		if (x.Coordinates == nil) != (y.Coordinates == nil) {
			return false
		}
		return x.Coordinates == nil || *x.Coordinates == *y.Coordinates
	})
}

// GenerationMode tells whether a generation built a document or extended one.
type GenerationMode string

const (
	ModeBootstrap GenerationMode = "bootstrap"
	ModeFollowUp  GenerationMode = "follow_up"
)

// Generation is the result of one response-generator call.
type Generation struct {
	Reply     string         `json:"reply"`
	Itinerary *Itinerary     `json:"itinerary"`
	Mode      GenerationMode `json:"mode"`
	// Category is the matched destination (bootstrap) or request category (follow-up).
	Category string `json:"category,omitempty"`
}
