package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/exchange/internal/discovery"
	"github.com/xiaot623/gogo/exchange/internal/domain"
	"github.com/xiaot623/gogo/exchange/internal/metrics"
)

// SearchStructured runs a structured discovery query.
func (s *Service) SearchStructured(ctx context.Context, req domain.StructuredSearchRequest) (*domain.StructuredSearchResponse, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "discovery.search_structured")
	defer span.End()

	var candidates int
	var matches []discovery.Match
	filter, err := discovery.NormalizeStructured(req)
	if err == nil {
		matches, candidates, err = s.search(ctx, span, filter)
	}
	s.recordSearch(span, metrics.ModeStructured, start, candidates, len(matches), err)
	if err != nil {
		return nil, err
	}

	items := make([]domain.AgentSummary, len(matches))
	for i := range matches {
		items[i] = discovery.Summarize(&matches[i].Agent)
	}
	return &domain.StructuredSearchResponse{
		Filters: filter,
		Count:   len(items),
		Items:   items,
	}, nil
}

// SearchIntent translates a free-text query into filters and runs it. Each
// item carries an explanation derived from the interpreted filters.
func (s *Service) SearchIntent(ctx context.Context, req domain.IntentSearchRequest) (*domain.IntentSearchResponse, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "discovery.search_intent")
	defer span.End()

	filter, err := s.interpret(ctx, req)
	var candidates int
	var matches []discovery.Match
	if err == nil {
		matches, candidates, err = s.search(ctx, span, filter.StructuredFilter)
	}
	s.recordSearch(span, metrics.ModeIntent, start, candidates, len(matches), err)
	if err != nil {
		return nil, err
	}

	explanation := discovery.Explain(*filter)
	items := make([]domain.IntentMatch, len(matches))
	for i := range matches {
		items[i] = domain.IntentMatch{
			AgentSummary: discovery.Summarize(&matches[i].Agent),
			Explanation:  explanation,
		}
	}
	return &domain.IntentSearchResponse{
		OriginalQuery:      req.Query,
		InterpretedFilters: *filter,
		Count:              len(items),
		Items:              items,
	}, nil
}

func (s *Service) interpret(ctx context.Context, req domain.IntentSearchRequest) (*domain.IntentFilter, error) {
	if err := discovery.ValidateRequesterContext(req.RequesterContext); err != nil {
		return nil, err
	}

	filter, err := s.translator.Translate(ctx, req.Query, req.RequesterContext)
	if err != nil {
		return nil, fmt.Errorf("failed to translate intent: %w", err)
	}
	if filter == nil {
		return nil, fmt.Errorf("failed to translate intent: translator returned no filter")
	}
	// Translator output is validated like caller input.
	if err := discovery.ValidateIntentFilter(filter); err != nil {
		return nil, err
	}
	return filter, nil
}

// search fetches candidates for f and evaluates them. The fetch is bounded by
// the effective limit.
func (s *Service) search(ctx context.Context, span trace.Span, f domain.StructuredFilter) ([]discovery.Match, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	limit := discovery.EffectiveLimit(f.Limit)
	candidates, err := s.store.ListActiveCandidates(ctx, f.Capability, limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, fmt.Errorf("failed to list candidates: %w", err)
	}

	matches := discovery.Evaluate(candidates, f)
	span.SetAttributes(
		attribute.String("discovery.capability", f.Capability),
		attribute.Int("discovery.limit", limit),
		attribute.Int("discovery.candidates", len(candidates)),
		attribute.Int("discovery.results", len(matches)),
	)
	return matches, len(candidates), nil
}

func (s *Service) recordSearch(span trace.Span, mode string, start time.Time, candidates, results int, err error) {
	outcome := outcomeOf(err)
	s.metrics.RecordSearch(mode, outcome, candidates, results, s.now().Sub(start))
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	if outcome == "error" {
		s.logger.Error("discovery search failed", zap.String("mode", mode), zap.Error(err))
	} else {
		s.logger.Debug("discovery search rejected", zap.String("mode", mode), zap.String("outcome", outcome), zap.Error(err))
	}
}

func outcomeOf(err error) string {
	var ve *domain.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, domain.ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
