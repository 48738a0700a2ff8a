package container

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do"
	"github.com/serroba/contact-relay/internal/metrics"
	"github.com/serroba/contact-relay/internal/store"
)

func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(i, func(i *do.Injector) (*metrics.Metrics, error) {
		windows := do.MustInvoke[*store.RateLimitMemoryStore](i)

		return metrics.New(
			do.MustInvoke[*prometheus.Registry](i),
			func() float64 { return float64(windows.Len()) },
		), nil
	})
}
