package messaging

import (
	"context"

	"github.com/feral-file/nft-suite/internal/report"
)

// Publisher defines the interface for publishing suite reports to a message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishReport publishes the canonical encoding of a suite report
	PublishReport(ctx context.Context, r *report.Report) error
	// Close closes the connection
	Close()
}
