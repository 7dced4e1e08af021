package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/exchange/internal/adapter/intent"
	"github.com/xiaot623/gogo/exchange/internal/auth"
	"github.com/xiaot623/gogo/exchange/internal/config"
	"github.com/xiaot623/gogo/exchange/internal/domain"
	"github.com/xiaot623/gogo/exchange/internal/metrics"
	"github.com/xiaot623/gogo/exchange/internal/repository"
	"github.com/xiaot623/gogo/exchange/policy"
	"github.com/xiaot623/gogo/exchange/tests/helpers"
)

func newTestService(t *testing.T, db store.Store, translator intent.Translator) *Service {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.AdminPassword = "s3cret"
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if translator == nil {
		translator = intent.NewRuleTranslator()
	}
	svc, err := New(db, translator, auth.NewIssuer("test-secret", time.Minute), policyEngine,
		metrics.NewCollector("test", zap.NewNop()), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc
}

func newSQLiteService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	db := helpers.NewTestSQLiteStore(t)
	return newTestService(t, db, nil), db
}

// recordingStore is a Store whose candidate fetch is scripted.
type recordingStore struct {
	store.Store

	mu         sync.Mutex
	candidates []domain.Agent
	err        error
	block      bool
	limits     []int
	hints      []string
}

func (r *recordingStore) ListActiveCandidates(ctx context.Context, capabilityHint string, limit int) ([]domain.Agent, error) {
	r.mu.Lock()
	r.limits = append(r.limits, limit)
	r.hints = append(r.hints, capabilityHint)
	r.mu.Unlock()

	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.Agent, 0, len(r.candidates))
	for _, a := range r.candidates {
		if len(out) == limit {
			break
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *recordingStore) calls() ([]int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.limits...), append([]string(nil), r.hints...)
}

// stubTranslator returns a fixed filter.
type stubTranslator struct {
	filter *domain.IntentFilter
	err    error
}

func (s stubTranslator) Translate(ctx context.Context, query string, rc *domain.RequesterContext) (*domain.IntentFilter, error) {
	if s.err != nil {
		return nil, s.err
	}
	f := *s.filter
	return &f, nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
