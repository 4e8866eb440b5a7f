package api

import (
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/davidkirwan/asset-monitoring/internal/source"
)

type metricsAPI struct {
	agg *source.Aggregator
	log *logrus.Logger
}

// scrape runs one aggregation per request. The aggregation is bound to the
// request context, so a disconnecting scraper cancels in-flight upstream
// calls.
func (a *metricsAPI) scrape(w http.ResponseWriter, r *http.Request) {
	res := a.agg.Aggregate(r.Context())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(res.Status)
	io.WriteString(w, res.Body)

	if res.Status != http.StatusOK {
		a.log.Errorf("[http] metrics scrape failed with status %d", res.Status)
	}
}
