package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type Manager struct {
	registry *prometheus.Registry

	// counters
	CounterLogins         *prometheus.CounterVec
	CounterTokenRefreshes *prometheus.CounterVec
	CounterUploads        *prometheus.CounterVec
	CounterCacheHits      prometheus.Counter

	// histograms
	HistAPIRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("garminpartner", "test", prometheus.NewRegistry())
}

func NewManager(namespace, subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	counterLogins := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "logins",
		Help:      "The total number of login attempts",
	}, []string{"result"})
	counterTokenRefreshes := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "token_refreshes",
		Help:      "The total number of oauth2 token refreshes",
	}, []string{"result"})
	counterUploads := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_uploads",
		Help:      "The total number of workout uploads",
	}, []string{"result"})
	counterCacheHits := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_cache_hits",
		Help:      "The total number of API reads served from cache",
	})

	histAPIRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_request_duration_seconds",
		Help:      "Histogram of Garmin API response time in seconds",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"operation", "status_code"})

	return &Manager{
		registry:               reg,
		CounterLogins:          counterLogins,
		CounterTokenRefreshes:  counterTokenRefreshes,
		CounterUploads:         counterUploads,
		CounterCacheHits:       counterCacheHits,
		HistAPIRequestDuration: histAPIRequestDuration,
	}
}

// NewRegistry returns a registry with the go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends all gathered metrics to a prometheus pushgateway.
// An empty url disables pushing.
func (m *Manager) Push(url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
