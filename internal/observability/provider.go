package observability

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceNamespace groups the gallery binaries in telemetry backends
const ServiceNamespace = "media-gallery"

const (
	spanBatchTimeout     = 5 * time.Second
	spanBatchSize        = 512
	metricExportInterval = 30 * time.Second
)

// Provider owns the gallery's tracer and meter providers
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	// shutdowns run in reverse registration order
	shutdowns []func(context.Context) error
}

// ProviderOption customises NewProvider
type ProviderOption func(*providerOptions)

type providerOptions struct {
	attributes   []attribute.KeyValue
	spanExporter sdktrace.SpanExporter
	metricReader sdkmetric.Reader
}

// WithResourceAttributes adds attributes to the telemetry resource, such as
// which backing services the gallery runs with
func WithResourceAttributes(attrs ...attribute.KeyValue) ProviderOption {
	return func(o *providerOptions) { o.attributes = append(o.attributes, attrs...) }
}

// WithSpanExporter replaces the OTLP trace exporter
func WithSpanExporter(exporter sdktrace.SpanExporter) ProviderOption {
	return func(o *providerOptions) { o.spanExporter = exporter }
}

// WithMetricReader replaces the periodic OTLP metric reader
func WithMetricReader(reader sdkmetric.Reader) ProviderOption {
	return func(o *providerOptions) { o.metricReader = reader }
}

// NewProvider installs the tracer and meter providers enabled in config as
// the process globals, along with the W3C trace context propagator the
// gallery client injects into API requests
func NewProvider(ctx context.Context, config Config, opts ...ProviderOption) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o providerOptions
	for _, opt := range opts {
		opt(&o)
	}

	res, err := newResource(ctx, config, o.attributes)
	if err != nil {
		return nil, err
	}

	p := &Provider{}

	if config.TracesEnabled {
		tp, err := newTracerProvider(ctx, res, config, o.spanExporter)
		if err != nil {
			return nil, err
		}
		p.tracerProvider = tp
		p.shutdowns = append(p.shutdowns, tp.Shutdown)
		otel.SetTracerProvider(tp)
	}

	if config.MetricsEnabled {
		mp, err := newMeterProvider(ctx, res, config, o.metricReader)
		if err != nil {
			return nil, errors.Join(err, p.Shutdown(ctx))
		}
		p.meterProvider = mp
		p.shutdowns = append(p.shutdowns, mp.Shutdown)
		otel.SetMeterProvider(mp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return p, nil
}

func newResource(ctx context.Context, config Config, extra []attribute.KeyValue) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceNamespace(ServiceNamespace),
		semconv.ServiceVersion(config.ServiceVersion),
		semconv.DeploymentEnvironment(config.Environment),
	}, extra...)

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		// OTEL_RESOURCE_ATTRIBUTES
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithProcessRuntimeVersion(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, config Config, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	sampler, err := newSampler(config.TracesSampler, config.TracesSamplerArg)
	if err != nil {
		return nil, err
	}

	if exporter == nil {
		// The endpoint URL carries the scheme, so no WithInsecure
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(config.TracesEndpoint))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(spanBatchTimeout),
			sdktrace.WithMaxExportBatchSize(spanBatchSize),
		),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, config Config, reader sdkmetric.Reader) (*sdkmetric.MeterProvider, error) {
	if reader == nil {
		exporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(config.MetricsEndpoint))
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportInterval))
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		// Exemplars only from sampled requests
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(httpHistogramView()),
	), nil
}

// httpHistogramView records the HTTP duration and size histograms as
// base-2 exponential histograms
func httpHistogramView() sdkmetric.View {
	return sdkmetric.NewView(
		sdkmetric.Instrument{Name: "http.server.*", Kind: sdkmetric.InstrumentKindHistogram},
		sdkmetric.Stream{
			Aggregation: sdkmetric.AggregationBase2ExponentialHistogram{MaxSize: 160, MaxScale: 20},
		},
	)
}

// newSampler maps an OTEL_TRACES_SAMPLER name and argument to a sampler.
// Ratio samplers need an argument in [0, 1].
func newSampler(name, arg string) (sdktrace.Sampler, error) {
	ratio := func() (float64, error) {
		r, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid sampler arg %q: %w", arg, err)
		}
		if r < 0 || r > 1 {
			return 0, fmt.Errorf("sampler ratio must be between 0 and 1, got %v", r)
		}
		return r, nil
	}

	switch name {
	case SamplerAlwaysOn:
		return sdktrace.AlwaysSample(), nil
	case SamplerAlwaysOff:
		return sdktrace.NeverSample(), nil
	case SamplerParentBasedAlwaysOn:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case SamplerParentBasedAlwaysOff:
		return sdktrace.ParentBased(sdktrace.NeverSample()), nil
	case SamplerTraceIDRatio, SamplerParentBasedTraceIDRatio:
		r, err := ratio()
		if err != nil {
			return nil, err
		}
		if name == SamplerTraceIDRatio {
			return sdktrace.TraceIDRatioBased(r), nil
		}
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(r)), nil
	default:
		return nil, fmt.Errorf("unknown sampler type: %s", name)
	}
}

// Tracer returns a tracer from the gallery's provider, or the global one
// when traces are disabled
func (p *Provider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.tracerProvider == nil {
		return otel.Tracer(name, opts...)
	}
	return p.tracerProvider.Tracer(name, opts...)
}

// Meter returns a meter from the gallery's provider, or the global one
// when metrics are disabled
func (p *Provider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p.meterProvider == nil {
		return otel.Meter(name, opts...)
	}
	return p.meterProvider.Meter(name, opts...)
}

// Shutdown flushes and stops every provider, metrics first. All providers
// are shut down even when one fails.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range slices.Backward(p.shutdowns) {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}
	p.shutdowns = nil
	return errors.Join(errs...)
}
