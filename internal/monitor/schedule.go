package monitor

import (
	"fmt"
	"time"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/robfig/cron/v3"
)

// intervalSchedule fires a fixed delay after the previous cycle ended. Unlike
// cron.ConstantDelaySchedule it keeps sub-second precision.
type intervalSchedule struct {
	delay time.Duration
}

func (s intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.delay)
}

// NewSchedule returns the cron schedule for spec when set, otherwise a fixed interval
// schedule. An empty interval selects config.DefaultInterval.
func NewSchedule(interval string, spec string) (cron.Schedule, error) {
	if spec != "" {
		s, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule %q: %w", spec, err)
		}
		return s, nil
	}

	if interval == "" {
		interval = config.DefaultInterval
	}

	d, err := time.ParseDuration(interval)
	if err != nil {
		return nil, fmt.Errorf("failed to parse interval %q: %w", interval, err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	return intervalSchedule{delay: d}, nil
}
