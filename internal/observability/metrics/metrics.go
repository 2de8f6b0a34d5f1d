package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	payoutCalculations metric.Int64Counter
	rateCardMisses     metric.Int64Counter
	tierFallbacks      metric.Int64Counter
	configReloads      metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "fieldpay"
	}
	meter := provider.Meter(name)

	payoutCalculations, err := meter.Int64Counter("fieldpay_payout_calculations_total")
	if err != nil {
		return nil, err
	}
	rateCardMisses, err := meter.Int64Counter("fieldpay_rate_card_misses_total")
	if err != nil {
		return nil, err
	}
	tierFallbacks, err := meter.Int64Counter("fieldpay_tier_fallbacks_total")
	if err != nil {
		return nil, err
	}
	configReloads, err := meter.Int64Counter("fieldpay_pricing_config_reloads_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		payoutCalculations: payoutCalculations,
		rateCardMisses:     rateCardMisses,
		tierFallbacks:      tierFallbacks,
		configReloads:      configReloads,
	}, nil
}

// RecordCalculation increments payout calculation counts.
func (m *Metrics) RecordCalculation(ctx context.Context, tier, slab string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("tier", strings.TrimSpace(tier)),
		attribute.String("slab", strings.TrimSpace(slab)),
	)
	m.payoutCalculations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateCardMiss increments failed rate card lookups.
func (m *Metrics) RecordRateCardMiss(ctx context.Context, tier, slab string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("tier", strings.TrimSpace(tier)),
		attribute.String("slab", strings.TrimSpace(slab)),
	)
	m.rateCardMisses.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTierFallback increments pincodes resolved through the default tier.
func (m *Metrics) RecordTierFallback(ctx context.Context) {
	if m == nil {
		return
	}
	m.tierFallbacks.Add(ctx, 1)
}

// RecordConfigReload increments pricing config cache refreshes.
func (m *Metrics) RecordConfigReload(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.configReloads.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"tier":        {},
	"slab":        {},
	"source":      {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
