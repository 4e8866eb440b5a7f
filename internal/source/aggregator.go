package source

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/davidkirwan/asset-monitoring/internal/expose"
	"github.com/davidkirwan/asset-monitoring/internal/model"
	"github.com/davidkirwan/asset-monitoring/internal/telemetry"
)

// Result is one finished aggregation: the response body and its HTTP status.
type Result struct {
	Status int
	Body   string
}

// Aggregator fans out to every registered source and renders one exposition
// body. Sources fetch concurrently; the output keeps registration order.
//
// In the default fail-fast mode any source failure fails the whole scrape
// with a single error line. In partial mode surviving sources still render
// and each failed source contributes an error marker comment instead.
type Aggregator struct {
	registry *Registry
	partial  bool
	tel      *telemetry.Telemetry
	log      *logrus.Logger
}

// NewAggregator creates an aggregator over the registry. tel may be nil.
func NewAggregator(registry *Registry, partial bool, tel *telemetry.Telemetry, log *logrus.Logger) *Aggregator {
	return &Aggregator{registry: registry, partial: partial, tel: tel, log: log}
}

type outcome struct {
	samples []model.MetricSample
	err     error
}

// Aggregate runs all sources and returns the combined body.
func (a *Aggregator) Aggregate(ctx context.Context) Result {
	sources := a.registry.Sources()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]outcome, len(sources))
	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()
			samples, err := s.Fetch(ctx)
			outcomes[i] = outcome{samples: samples, err: err}
			if err != nil && !a.partial {
				// No point letting the other fetches run to completion.
				cancel()
			}
		}(i, s)
	}
	wg.Wait()

	if !a.partial {
		// Prefer the failure that triggered the cancellation over errors the
		// cancellation itself induced in sibling fetches.
		var firstErr error
		for i, o := range outcomes {
			if o.err == nil {
				continue
			}
			a.log.Errorf("[aggregate] %s failed: %v", sources[i].ID(), o.err)
			if firstErr == nil || errors.Is(firstErr, context.Canceled) {
				firstErr = o.err
			}
		}
		if firstErr != nil {
			a.tel.ObserveScrape(false)
			return Result{
				Status: http.StatusInternalServerError,
				Body:   "# Error fetching metrics: " + firstErr.Error() + "\n",
			}
		}
	}

	clean := true
	var parts []string
	for i, o := range outcomes {
		if o.err != nil {
			clean = false
			a.log.Errorf("[aggregate] %s failed: %v", sources[i].ID(), o.err)
			parts = append(parts, "# Error fetching metrics from "+sources[i].ID()+": "+o.err.Error()+"\n")
			continue
		}
		if body := expose.Encode(o.samples); body != "" {
			parts = append(parts, body)
		}
	}

	a.tel.ObserveScrape(clean)
	return Result{
		Status: http.StatusOK,
		Body:   strings.Join(parts, "\n"),
	}
}
