// Package queue hosts the engine behind an AMQP work queue. Requests arrive
// as JSON AnalysisRequest messages and every message, well-formed or not,
// produces exactly one AnalysisEnvelope on the result queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"resumescore/internal/analysis"
	"resumescore/internal/common"
	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/observability"
	"resumescore/internal/types"

	"github.com/google/uuid"
)

// Delivery is one consumed message. The AMQP adapter implements it; tests
// use an in-memory fake.
type Delivery interface {
	Body() []byte
	MessageID() string
	Ack() error
	Nack(requeue bool) error
}

// Publisher sends an envelope to the result queue.
type Publisher interface {
	Publish(ctx context.Context, envelope types.AnalysisEnvelope) error
}

// Processor turns deliveries into published envelopes.
type Processor struct {
	engine    *analysis.Holder
	publisher Publisher
	breaker   *PublishCircuitBreaker
	om        *observability.ObservabilityManager
	logger    *errors.Logger
	maxChars  int
	newID     func() string
}

// ProcessorConfig groups the dependencies of a Processor.
type ProcessorConfig struct {
	Engine           *analysis.Holder
	Publisher        Publisher
	Breaker          *PublishCircuitBreaker
	Observability    *observability.ObservabilityManager
	Logger           *errors.Logger
	MaxDocumentChars int
}

// NewProcessor validates cfg and builds a Processor.
func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	if cfg.Engine == nil {
		return nil, errors.NewConfigError(errors.ErrCodeTaxonomyNotLoaded, "queue processor requires an engine", nil)
	}
	if cfg.Publisher == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "queue processor requires a publisher", nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = errors.NewNopLogger()
	}
	om := cfg.Observability
	if om == nil {
		om, _ = observability.NewObservabilityManager(config.ObservabilityConfig{}, "")
	}

	return &Processor{
		engine:    cfg.Engine,
		publisher: cfg.Publisher,
		breaker:   cfg.Breaker,
		om:        om,
		logger:    cfg.Logger,
		maxChars:  cfg.MaxDocumentChars,
		newID:     uuid.NewString,
	}, nil
}

// Handle processes one delivery. Malformed and invalid requests yield a
// failed envelope and are acked. A message whose envelope cannot be
// published is requeued.
func (p *Processor) Handle(ctx context.Context, d Delivery) error {
	// Work picked up during shutdown goes back to the queue untouched.
	if err := ctx.Err(); err != nil {
		_ = d.Nack(true)
		return err
	}

	envelope := p.process(ctx, d)

	err := p.breaker.Execute(func() error {
		return p.publisher.Publish(ctx, envelope)
	})
	if err != nil {
		p.om.GetMetrics().RecordQueueMessage(ctx, "publish_failed")
		p.logger.LogError(err, "Failed to publish analysis envelope, requeueing",
			"analysis_id", envelope.AnalysisID,
			"message_id", d.MessageID())
		if nackErr := d.Nack(true); nackErr != nil {
			p.logger.LogError(nackErr, "Failed to nack delivery", "message_id", d.MessageID())
		}
		return errors.NewNetworkError(errors.ErrCodePublishFailed, "failed to publish analysis envelope", err).
			WithContext("analysis_id", envelope.AnalysisID)
	}

	p.om.GetMetrics().RecordQueueMessage(ctx, envelope.Status)
	p.logger.Debug("Analysis envelope published",
		"analysis_id", envelope.AnalysisID,
		"document_id", envelope.DocumentID,
		"status", envelope.Status)

	if err := d.Ack(); err != nil {
		return fmt.Errorf("failed to ack delivery %s: %w", d.MessageID(), err)
	}
	return nil
}

func (p *Processor) process(ctx context.Context, d Delivery) types.AnalysisEnvelope {
	envelope := types.AnalysisEnvelope{AnalysisID: p.newID()}

	var req types.AnalysisRequest
	if err := json.Unmarshal(d.Body(), &req); err != nil {
		p.logger.Warn("Malformed analysis request", "message_id", d.MessageID(), "error", err.Error())
		return failed(envelope, "malformed request: "+err.Error())
	}
	envelope.DocumentID = req.DocumentID
	envelope.UserID = req.UserID

	if err := common.ValidateRequest(req); err != nil {
		return failed(envelope, errorMessage(err))
	}
	if err := common.ValidateDocumentLength(req.DocumentText, p.maxChars); err != nil {
		return failed(envelope, errorMessage(err))
	}

	result, err := p.om.TrackAnalysis(ctx, "queue", func(ctx context.Context) (types.AnalysisResult, error) {
		return p.engine.AnalyzeContext(ctx, req)
	})
	if err != nil {
		return failed(envelope, errorMessage(err))
	}

	envelope.Result = &result
	envelope.Status = types.StatusCompleted
	if !result.IsValidDocument {
		envelope.Status = types.StatusRejected
	}
	return envelope
}

func failed(envelope types.AnalysisEnvelope, msg string) types.AnalysisEnvelope {
	envelope.Status = types.StatusFailed
	envelope.Error = msg
	return envelope
}

func errorMessage(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}
