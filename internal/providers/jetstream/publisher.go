// Package jetstream publishes suite reports to NATS JetStream.
package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/logger"
	"github.com/feral-file/nft-suite/internal/messaging"
	"github.com/feral-file/nft-suite/internal/report"
)

// SubjectPrefix is the root of every report subject
const SubjectPrefix = "suites"

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type publisher struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	streamName string
	builder    *report.Builder
}

// NewPublisher connects to NATS, ensures the report stream exists and returns a publisher
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, builder *report.Builder) (messaging.Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	if err := js.EnsureStream(ctx, cfg.StreamName, []string{SubjectPrefix + ".>"}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	return &publisher{
		nc:         nc,
		js:         js,
		streamName: cfg.StreamName,
		builder:    builder,
	}, nil
}

// PublishReport publishes the canonical report, deduplicated by run id.
// Reports whose digest no longer matches their content are rejected.
func (p *publisher) PublishReport(ctx context.Context, r *report.Report) error {
	if r == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if err := p.builder.Verify(r); err != nil {
		return fmt.Errorf("refusing to publish report %s: %w", r.ID, err)
	}

	data, err := p.builder.Canonical(r)
	if err != nil {
		return err
	}

	subject := BuildSubject(r)
	logger.DebugCtx(ctx, "Publishing suite report",
		zap.String("subject", subject),
		zap.String("stream", p.streamName),
		zap.String("id", r.ID))

	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(r.ID)); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}

	return nil
}

// BuildSubject returns suites.{suite}.{status}, e.g. suites.erc721.passed
func BuildSubject(r *report.Report) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, r.Suite, r.Status)
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
