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
	invitationsSent     metric.Int64Counter
	invitationsResolved metric.Int64Counter
	linkAttempts        metric.Int64Counter
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

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tenantlink"
	}
	meter := provider.Meter(name)

	invitationsSent, err := meter.Int64Counter("tenantlink_invitations_sent_total")
	if err != nil {
		return nil, err
	}
	invitationsResolved, err := meter.Int64Counter("tenantlink_invitations_resolved_total")
	if err != nil {
		return nil, err
	}
	linkAttempts, err := meter.Int64Counter("tenantlink_link_attempts_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invitationsSent:     invitationsSent,
		invitationsResolved: invitationsResolved,
		linkAttempts:        linkAttempts,
	}, nil
}

// RecordInvitationSent increments sent counts. delivered reflects whether the
// notification collaborator reported success.
func (m *Metrics) RecordInvitationSent(ctx context.Context, delivered bool) {
	if m == nil {
		return
	}
	m.invitationsSent.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("delivered", delivered),
	))
}

// RecordInvitationResolved increments terminal transitions by outcome
// (accepted, declined, expired).
func (m *Metrics) RecordInvitationResolved(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.invitationsResolved.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

// RecordLinkAttempt increments account-link attempts by result.
func (m *Metrics) RecordLinkAttempt(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.linkAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", strings.TrimSpace(result)),
	))
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
