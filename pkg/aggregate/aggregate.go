// Package aggregate drives one vendor overlap run: snapshot the selection
// store, fetch similar items for every selection concurrently, merge the
// corpus and hand it to the analyzer.
package aggregate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/salamyar/salamyar/pkg/overlap"
	"github.com/salamyar/salamyar/pkg/selection"
	"github.com/salamyar/salamyar/pkg/similar"
)

// ErrNoSelections is the single reportable precondition failure: aggregation
// over an empty selection set makes no external calls at all.
var ErrNoSelections = errors.New("no selections to aggregate")

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Fetcher fetches the similar-item list for one selection. Failures are
// absorbed inside the fetch, so there is no error return.
type Fetcher interface {
	FetchSimilar(ctx context.Context, sel selection.Selection) []similar.Item
}

// Config holds everything Run needs for a single aggregation.
type Config struct {
	Store       *selection.Store
	Fetcher     Fetcher
	Concurrency int    // defaults to 4 if <= 0
	Log         Logger // optional; nil = no logging

	// OnSelectionDone is called per selection after its fetch completes
	// (from worker goroutines). Enables the CLI to stream progress. Nil =
	// no callback.
	OnSelectionDone func(sel selection.Selection, itemsFound int)
}

// Run executes one aggregation over the store's current snapshot. Fetches
// run on a bounded worker pool, each writing to its own result slot; the
// analyzer only ever sees the fully merged corpus. A ctx deadline bounds the
// whole run: expired fetches simply contribute what they had.
func Run(ctx context.Context, cfg Config) (*overlap.Report, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	selections := cfg.Store.List()
	if len(selections) == 0 {
		return nil, ErrNoSelections
	}

	log.Infof("starting vendor overlap analysis for %d selections", len(selections))

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	// One result slot per selection; no shared mutable list across workers.
	results := make([][]similar.Item, len(selections))

	var wg sync.WaitGroup
	for i, sel := range selections {
		i, sel := i, sel
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			items := cfg.Fetcher.FetchSimilar(ctx, sel)
			results[i] = items
			log.Debugf("found %d similar items for %q", len(items), sel.ItemName)
			if cfg.OnSelectionDone != nil {
				cfg.OnSelectionDone(sel, len(items))
			}
		})
		if submitErr != nil {
			wg.Done()
			log.Warnf("could not schedule fetch for item %d: %v", sel.ItemID, submitErr)
		}
	}
	wg.Wait()

	var corpus []similar.Item
	for _, items := range results {
		corpus = append(corpus, items...)
	}

	report := overlap.Analyze(selections, corpus)
	report.RunID = uuid.NewString()
	report.GeneratedAt = time.Now().UTC()

	log.Infof("found %d vendors with multiple matches across %d similar items",
		len(report.Vendors), report.TotalSimilarItems)
	return report, nil
}
