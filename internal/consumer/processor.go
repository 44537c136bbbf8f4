// Package consumer pulls scan requests from Kafka and hands them to the
// scan orchestrator. The dashboard and the cron surface both enqueue
// scan.requested messages instead of calling the orchestrator directly.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

// eventTypeScanRequested is the only event this consumer handles.
const eventTypeScanRequested = "scan.requested"

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// ScanRunner executes one grid scan; the orchestrator satisfies this.
type ScanRunner interface {
	RunScan(ctx context.Context, campaignID string, keywords []string) error
}

// ScanRequest is the decoded payload of a scan.requested message.
type ScanRequest struct {
	CampaignID string   `json:"campaign_id"`
	Keywords   []string `json:"keywords,omitempty"`
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor pulls scan requests from Kafka and dispatches them to the runner.
type Processor struct {
	reader Reader
	runner ScanRunner
	logger *slog.Logger
}

// NewProcessor constructs a Processor with the provided reader and runner.
func NewProcessor(reader Reader, runner ScanRunner, opts ...Option) *Processor {
	p := &Processor{
		reader: reader,
		runner: runner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts a blocking loop that processes scan requests until the context
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
			p.logger.Error("fetch error", "error", err)
			continue
		}

		req, decodeErr := decodeMessage(msg)
		if decodeErr != nil {
			p.logger.Error("decode error",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", decodeErr,
			)
			// Commit malformed messages to avoid poison-pill loops.
			if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
				p.logger.Error("commit error after decode failure", "error", commitErr)
			}
			continue
		}

		if runErr := p.runner.RunScan(ctx, req.CampaignID, req.Keywords); runErr != nil {
			if errors.Is(runErr, entity.ErrScanAlreadyRunning) {
				// A concurrent scan for this campaign makes the request
				// redundant, not poisonous: drop it.
				p.logger.Warn("dropping duplicate scan request", "campaign_id", req.CampaignID)
			} else {
				p.logger.Error("scan request failed",
					"campaign_id", req.CampaignID,
					"error", runErr,
				)
				continue
			}
		}

		if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
			p.logger.Error("commit error", "error", commitErr)
		}
	}
}

func decodeMessage(msg kafka.Message) (ScanRequest, error) {
	eventType, ok := headerValue(msg, "event_type")
	if !ok {
		return ScanRequest{}, errors.New("missing event_type header")
	}
	if string(eventType) != eventTypeScanRequested {
		return ScanRequest{}, fmt.Errorf("unsupported event type: %s", eventType)
	}

	var req ScanRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return ScanRequest{}, fmt.Errorf("decoding payload: %w", err)
	}
	if req.CampaignID == "" {
		return ScanRequest{}, errors.New("missing campaign_id")
	}

	return req, nil
}

func headerValue(msg kafka.Message, key string) ([]byte, bool) {
	for _, header := range msg.Headers {
		if header.Key == key {
			return header.Value, true
		}
	}
	return nil, false
}
