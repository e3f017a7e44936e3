package calendar

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultLiveRefresh = 60 * time.Second

// IntervalScheduler runs repeating jobs until they are removed.
type IntervalScheduler interface {
	AddIntervalJob(name string, interval time.Duration, task func()) (uuid.UUID, error)
	RemoveJob(id uuid.UUID) error
}

// LiveFeed recomputes the live indicator on a fixed interval for as long as a
// view stays mounted.
type LiveFeed struct {
	builder   *Builder
	scheduler IntervalScheduler
	interval  time.Duration
}

func NewLiveFeed(builder *Builder, scheduler IntervalScheduler, interval time.Duration) *LiveFeed {
	if interval <= 0 {
		interval = DefaultLiveRefresh
	}
	return &LiveFeed{builder: builder, scheduler: scheduler, interval: interval}
}

// Mount delivers the indicator for date immediately and then on every tick.
// fn receives nil when date is not today. The returned func removes the job;
// calling it more than once is safe.
func (f *LiveFeed) Mount(date time.Time, fn func(*LiveIndicator)) (func(), error) {
	if f == nil || f.builder == nil || f.scheduler == nil {
		return nil, fmt.Errorf("live feed is not configured")
	}
	if fn == nil {
		return nil, fmt.Errorf("live feed callback is required")
	}

	fn(f.builder.Live(date))

	name := fmt.Sprintf("calendar_live_%s_%s", date.Format(dateLayout), uuid.NewString())
	jobID, err := f.scheduler.AddIntervalJob(name, f.interval, func() {
		fn(f.builder.Live(date))
	})
	if err != nil {
		return nil, fmt.Errorf("schedule live indicator: %w", err)
	}

	var once sync.Once
	unmount := func() {
		once.Do(func() {
			if err := f.scheduler.RemoveJob(jobID); err != nil {
				log.Warn().Err(err).Str("job_name", name).Msg("Failed to remove live indicator job")
			}
		})
	}
	return unmount, nil
}
