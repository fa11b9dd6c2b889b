package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"newscast/internal/newscast"
)

// Scheduler runs newscast generation for all users on a fixed interval.
type Scheduler struct {
	generator *newscast.Generator
	interval  time.Duration
}

// New creates a new scheduler.
func New(generator *newscast.Generator, interval time.Duration) *Scheduler {
	if interval == 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		generator: generator,
		interval:  interval,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial newscast generation...")
	s.generate(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (generate every %s)\n", s.interval)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintln(os.Stderr, "scheduler: generating newscasts...")
			s.generate(ctx)
		}
	}
}

func (s *Scheduler) generate(ctx context.Context) {
	if err := s.generator.RunAll(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "  generation error: %v\n", err)
	}
}
