package util

import (
	"fmt"
	"sync"
	"time"
)

// TimeProvider holds the timezone used to turn timestamps into calendar dates
type TimeProvider struct {
	location *time.Location
	mu       sync.RWMutex
}

var (
	globalTimeProvider *TimeProvider
	mu                 sync.Mutex
)

// InitializeTimeProvider initializes the global time provider with the specified timezone
func InitializeTimeProvider(timezone string) error {
	mu.Lock()
	defer mu.Unlock()

	provider := &TimeProvider{}
	if err := provider.SetTimezone(timezone); err != nil {
		return err
	}

	globalTimeProvider = provider
	return nil
}

// GetTimeProvider returns the global time provider instance.
// If not initialized, it defaults to Local timezone
func GetTimeProvider() *TimeProvider {
	mu.Lock()
	provider := globalTimeProvider
	mu.Unlock()

	if provider == nil {
		provider = &TimeProvider{location: time.Local}
	}
	return provider
}

// SetTimezone updates the timezone for the time provider
func (tp *TimeProvider) SetTimezone(timezone string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, Europe/Vilnius, America/New_York, Asia/Tokyo", timezone, err)
		}
		loc = l
	}
	tp.location = loc
	return nil
}

// Location returns the configured timezone
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

// Now returns the current time in the configured timezone
func (tp *TimeProvider) Now() time.Time {
	return time.Now().In(tp.Location())
}

// In converts a time to the configured timezone
func (tp *TimeProvider) In(t time.Time) time.Time {
	return t.In(tp.Location())
}

// Format formats a time according to the layout in the configured timezone
func (tp *TimeProvider) Format(t time.Time, layout string) string {
	return t.In(tp.Location()).Format(layout)
}

// ParseDate parses YYYY-MM-DD or YYYY-MM as midnight of that date in the
// configured timezone. An empty string yields nil.
func (tp *TimeProvider) ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	loc := tp.Location()
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date '%s': use YYYY-MM-DD or YYYY-MM", s)
}

// ParseEndDate is ParseDate for an inclusive upper bound: YYYY-MM resolves
// to the last day of that month.
func (tp *TimeProvider) ParseEndDate(s string) (*time.Time, error) {
	t, err := tp.ParseDate(s)
	if err != nil || t == nil {
		return t, err
	}
	if _, err := time.Parse("2006-01", s); err == nil {
		last := t.AddDate(0, 1, -1)
		return &last, nil
	}
	return t, nil
}
