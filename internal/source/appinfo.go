package source

import (
	"context"
	"strconv"
	"time"

	"github.com/davidkirwan/asset-monitoring/internal/model"
)

// AppInfo reports the exporter's own build info and the timestamp of the
// scrape being served. The timestamp is read at fetch time, never cached.
type AppInfo struct {
	version     string
	environment string
	now         func() time.Time
}

// NewAppInfo creates the self-reporting source.
func NewAppInfo(version, environment string) *AppInfo {
	return &AppInfo{version: version, environment: environment, now: time.Now}
}

func (a *AppInfo) ID() string          { return "app" }
func (a *AppInfo) Name() string        { return "Application" }
func (a *AppInfo) Description() string { return "Exporter build info and fetch timestamp" }

func (a *AppInfo) Fetch(_ context.Context) ([]model.MetricSample, error) {
	return []model.MetricSample{
		{
			Name: "asset_monitoring_app_info",
			Help: "Application information",
			Labels: []model.Label{
				model.L("version", a.version),
				model.L("environment", a.environment),
			},
			Value: "1",
		},
		{
			Name:  "asset_monitoring_last_successful_fetch_seconds",
			Help:  "Timestamp of last successful metrics fetch",
			Value: strconv.FormatInt(a.now().Unix(), 10),
		},
	}, nil
}
