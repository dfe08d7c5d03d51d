package util

import (
	"fmt"
	"sync"
	"time"
)

// TimestampLayout is used for event timestamps on the console.
const TimestampLayout = "15:04:05.000"

// TimeProvider renders instants in a configured timezone.
type TimeProvider struct {
	location *time.Location
	mu       sync.RWMutex
}

var (
	globalTimeProvider *TimeProvider
	mu                 sync.Mutex
)

// InitializeTimeProvider installs the global provider for timezone. The
// previous provider is kept when timezone is invalid.
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

// GetTimeProvider returns the global provider, defaulting to Local.
func GetTimeProvider() *TimeProvider {
	mu.Lock()
	provider := globalTimeProvider
	mu.Unlock()
	if provider == nil {
		_ = InitializeTimeProvider("Local")
		mu.Lock()
		provider = globalTimeProvider
		mu.Unlock()
	}
	return provider
}

func (tp *TimeProvider) SetTimezone(timezone string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/New_York, Europe/London", timezone, err)
		}
		loc = l
	}
	tp.location = loc
	return nil
}

// Location returns the configured timezone.
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

func (tp *TimeProvider) Now() time.Time {
	return time.Now().In(tp.Location())
}

func (tp *TimeProvider) Format(t time.Time, layout string) string {
	return t.In(tp.Location()).Format(layout)
}

// FormatMillis formats a Unix millisecond timestamp.
func (tp *TimeProvider) FormatMillis(ms int64, layout string) string {
	return tp.Format(time.UnixMilli(ms), layout)
}

// FormatTimestamp formats ms with TimestampLayout using the global provider.
func FormatTimestamp(ms int64) string {
	return GetTimeProvider().FormatMillis(ms, TimestampLayout)
}
