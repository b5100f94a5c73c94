package telemetry

import (
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/library-lending/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// provider assembles a Telemetry from a tracer, a logger, and a Prometheus
// registry. Metric help text and label sets are fixed here so services only
// need the metric name.
type provider struct {
	tracer   observability.TraceCtx
	logger   observability.Logger
	registry prometrics.Registry
}

func New(tracer observability.TraceCtx, logger observability.Logger, registry prometrics.Registry) observability.Telemetry {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &provider{tracer: tracer, logger: logger, registry: registry}
}

func (p *provider) Tracer() observability.TraceCtx { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }

var counterSpecs = map[string]struct {
	help   string
	labels []string
}{
	observability.MUsecaseRequests:  {"Total number of use case invocations.", []string{"use_case", "outcome"}},
	observability.MHTTPRequests:     {"Total HTTP requests processed.", []string{"method", "route", "status"}},
	observability.MExternalRequests: {"Total calls to external collaborators.", []string{"peer", "endpoint", "outcome"}},
}

var histogramSpecs = map[string]struct {
	help   string
	labels []string
}{
	observability.MUsecaseDuration:         {"Duration of use case execution in seconds.", []string{"use_case"}},
	observability.MHTTPRequestDuration:     {"Latency distribution of HTTP requests.", []string{"method", "route", "status"}},
	observability.MExternalRequestDuration: {"Latency distribution of external calls.", []string{"peer", "endpoint"}},
}

func (p *provider) Counter(name string) observability.Counter {
	if p.registry == nil {
		return observability.NopTelemetry().Counter(name)
	}
	spec, ok := counterSpecs[name]
	if !ok {
		return observability.NopTelemetry().Counter(name)
	}
	return p.registry.Counter(name, spec.help, spec.labels...)
}

func (p *provider) Histogram(name string) observability.Histogram {
	if p.registry == nil {
		return observability.NopTelemetry().Histogram(name)
	}
	spec, ok := histogramSpecs[name]
	if !ok {
		return observability.NopTelemetry().Histogram(name)
	}
	return p.registry.Histogram(name, spec.help, prometheus.DefBuckets, spec.labels...)
}
