// Package availability decides whether a requested slot is free and proposes
// alternative whole-hour slots on the same day.
package availability

import (
	"context"
	"fmt"
	"time"
)

// DefaultDuration is the assumed length of every appointment.
const DefaultDuration = 60 * time.Minute

// DefaultSuggestions caps SuggestSlots when max is not positive.
const DefaultSuggestions = 3

// Store returns the start times of a tenant's confirmed or pending
// appointments that begin inside [from, to], both ends included.
type Store interface {
	ActiveStarts(ctx context.Context, tenantID string, from, to time.Time) ([]time.Time, error)
}

// Interval is a span between Start and End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Covers reports whether t lies in the closed span [Start, End].
func (i Interval) Covers(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// Checker answers availability questions against the appointment store.
type Checker struct {
	store Store
	now   func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithClock overrides the clock used to exclude past slots.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// NewChecker builds a Checker.
func NewChecker(store Store, opts ...Option) *Checker {
	if store == nil {
		panic("availability: store required")
	}
	c := &Checker{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsAvailable reports whether no active appointment of the tenant starts within
// duration of requested on either side. A booking that ends exactly when the
// requested slot begins, or begins exactly when it ends, still collides.
func (c *Checker) IsAvailable(ctx context.Context, tenantID string, requested time.Time, duration time.Duration) (bool, error) {
	if duration <= 0 {
		duration = DefaultDuration
	}
	starts, err := c.store.ActiveStarts(ctx, tenantID, requested.Add(-duration), requested.Add(duration))
	if err != nil {
		return false, fmt.Errorf("availability: load appointments: %w", err)
	}
	window := Interval{Start: requested.Add(-duration), End: requested.Add(duration)}
	for _, s := range starts {
		if window.Covers(s) {
			return false, nil
		}
	}
	return true, nil
}

// SuggestSlots lists up to max whole-hour slots in [openHour, closeHour) on day's date,
// in ascending order. Hours in which an active appointment starts, and slots
// that are not after now, are skipped.
func (c *Checker) SuggestSlots(ctx context.Context, tenantID string, day time.Time, openHour, closeHour, max int) ([]time.Time, error) {
	if max <= 0 {
		max = DefaultSuggestions
	}
	if closeHour <= openHour {
		return nil, nil
	}
	loc := day.Location()
	hourSlot := func(h int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, loc)
	}

	starts, err := c.store.ActiveStarts(ctx, tenantID, hourSlot(openHour), hourSlot(closeHour))
	if err != nil {
		return nil, fmt.Errorf("availability: load appointments: %w", err)
	}

	now := c.now()
	var out []time.Time
	for h := openHour; h < closeHour && len(out) < max; h++ {
		slot := hourSlot(h)
		if !slot.After(now) {
			continue
		}
		hour := Interval{Start: slot, End: slot.Add(time.Hour)}
		if startsWithin(starts, hour) {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

func startsWithin(starts []time.Time, span Interval) bool {
	for _, s := range starts {
		if !s.Before(span.Start) && s.Before(span.End) {
			return true
		}
	}
	return false
}
