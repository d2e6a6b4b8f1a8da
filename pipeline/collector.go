package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/newsdigest/core"
)

// Collector fetches raw items from one upstream.
// Per-source failures are reported as CollectionErrors, never as a Go error:
// a collector always returns whatever it managed to gather.
type Collector interface {
	// Name identifies the collector in logs.
	Name() string

	// Collect returns items published at or after cutoff.
	Collect(ctx context.Context, cutoff time.Time) ([]*core.RawItem, []core.CollectionError)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc struct {
	CollectorName string
	Fn            func(ctx context.Context, cutoff time.Time) ([]*core.RawItem, []core.CollectionError)
}

// Name returns the configured name.
func (c CollectorFunc) Name() string { return c.CollectorName }

// Collect calls Fn.
func (c CollectorFunc) Collect(ctx context.Context, cutoff time.Time) ([]*core.RawItem, []core.CollectionError) {
	return c.Fn(ctx, cutoff)
}

// collectAll runs every collector concurrently and merges their outputs once
// all of them have returned. Output order follows collector order.
// Items failing validation are dropped with a logged warning.
func collectAll(ctx context.Context, collectors []Collector, cutoff time.Time, logger *slog.Logger) Collected {
	parts := make([]Collected, len(collectors))

	var wg sync.WaitGroup
	for i, c := range collectors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parts[i] = runCollector(ctx, c, cutoff, logger)
		}()
	}
	wg.Wait()

	return MergeCollected(parts...)
}

func runCollector(ctx context.Context, c Collector, cutoff time.Time, logger *slog.Logger) (out Collected) {
	log := logger.With("collector", c.Name())
	defer func() {
		if r := recover(); r != nil {
			log.Error("collector panicked", "panic", r)
			out = Collected{Errors: []core.CollectionError{{
				SourceID:  c.Name(),
				ErrorKind: "panic",
				Message:   fmt.Sprint(r),
				Timestamp: time.Now().UTC(),
			}}}
		}
	}()

	items, errs := c.Collect(ctx, cutoff)
	valid := items[:0:0]
	for _, item := range items {
		if err := core.ValidateRawItem(item); err != nil {
			log.Warn("dropping invalid item", "err", err)
			continue
		}
		valid = append(valid, item)
	}
	log.Info("collector finished", "items", len(valid), "errors", len(errs))
	return Collected{Items: valid, Errors: errs}
}
