// Package consumer drives sync passes from Kafka sync-request messages.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"example.com/fitbitsync/internal/domain"
	"example.com/fitbitsync/internal/events"
)

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Synchronizer runs one sync pass per request.
type Synchronizer interface {
	Synchronize(ctx context.Context, userID string) (*domain.SyncSummary, error)
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor pulls sync requests from Kafka and dispatches them to the
// orchestrator, committing offsets so redelivery matches the error class.
type Processor struct {
	reader Reader
	syncer Synchronizer
	logger *log.Logger
}

// NewProcessor constructs a Processor with the provided reader and synchronizer.
func NewProcessor(reader Reader, syncer Synchronizer, opts ...Option) *Processor {
	p := &Processor{
		reader: reader,
		syncer: syncer,
		logger: log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts a blocking loop that processes sync requests until the context
// is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.Printf("fetch error: %v", err)
			continue
		}

		request, decodeErr := decodeRequest(msg)
		if decodeErr != nil {
			p.logger.Printf("decode error (topic=%s, partition=%d, offset=%d): %v", msg.Topic, msg.Partition, msg.Offset, decodeErr)
			recordDecodeError(msg.Topic)
			// Commit malformed messages to avoid poison-pill loops.
			if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
				p.logger.Printf("commit error after decode failure: %v", commitErr)
			}
			continue
		}

		summary, syncErr := p.syncer.Synchronize(ctx, request.UserID)
		if syncErr != nil {
			p.logger.Printf("sync error (user=%s): %v", request.UserID, syncErr)
			recordSyncError(msg.Topic)
			if retriable(syncErr) {
				// Leave the offset uncommitted so the request is redelivered.
				continue
			}
			// Permanent failures will not succeed on redelivery; commit.
			if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
				p.logger.Printf("commit error after permanent failure: %v", commitErr)
			}
			continue
		}

		if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
			p.logger.Printf("commit error: %v", commitErr)
		} else {
			recordProcessed(msg.Topic, msg.Time)
			p.logger.Printf("sync complete (user=%s, activities=%d, sleep=%d, weights=%d)",
				request.UserID, summary.Activities, summary.Sleep, summary.Weights)
		}
	}
}

// retriable reports whether a failed request should be redelivered. Only
// transient provider failures are; credential problems and validation
// failures are permanent from the consumer's point of view.
func retriable(err error) bool {
	if perr, ok := domain.AsProviderError(err); ok {
		return perr.Transient()
	}
	if errors.Is(err, domain.ErrNoCredentials) || errors.Is(err, domain.ErrValidation) {
		return false
	}
	// Unknown failures (e.g. persistence) are assumed transient.
	return true
}

func decodeRequest(msg kafka.Message) (*events.SyncRequested, error) {
	var request events.SyncRequested
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		return nil, err
	}
	if request.UserID == "" {
		return nil, errors.New("missing user_id")
	}
	return &request, nil
}
