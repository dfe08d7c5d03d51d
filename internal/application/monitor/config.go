package monitor

import (
	"fmt"
	"time"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/region"
)

// Config contains configuration for the monitor pipeline
type Config struct {
	// Store settings
	Capacity         int
	DefaultPointerID int

	// Store-level bounds; events outside are never stored
	Region *region.Corners

	// Type filter; nil enables every kind
	EnabledTypes map[model.EventKind]bool

	// Output settings
	ConsoleLogging bool

	// Start with processing paused
	Paused bool

	// Clock used to stamp events and name recordings
	Clock func() time.Time
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.Capacity == 0 {
		c.Capacity = model.DefaultCapacity
	}
	if c.EnabledTypes == nil {
		c.EnabledTypes = model.DefaultSettings().EnabledTypes
	}
	for kind := range c.EnabledTypes {
		if !kind.Valid() {
			return fmt.Errorf("%w: %q", model.ErrUnknownEventKind, kind)
		}
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return nil
}
