package service

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiaot623/gogo/exchange/internal/adapter/intent"
	"github.com/xiaot623/gogo/exchange/internal/auth"
	"github.com/xiaot623/gogo/exchange/internal/config"
	"github.com/xiaot623/gogo/exchange/internal/metrics"
	"github.com/xiaot623/gogo/exchange/internal/repository"
	"github.com/xiaot623/gogo/exchange/policy"
)

const tracerName = "github.com/xiaot623/gogo/exchange/internal/service"

// Service implements the exchange operations. It holds no per-request state
// and is safe for concurrent use.
type Service struct {
	store        store.Store
	translator   intent.Translator
	tokens       *auth.Issuer
	policyEngine *policy.Engine
	metrics      *metrics.Collector
	config       *config.Config
	logger       *zap.Logger
	tracer       trace.Tracer

	adminPasswordHash []byte
	now               func() time.Time
}

func New(store store.Store, translator intent.Translator, tokens *auth.Issuer, policyEngine *policy.Engine, collector *metrics.Collector, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}

	return &Service{
		store:             store,
		translator:        translator,
		tokens:            tokens,
		policyEngine:      policyEngine,
		metrics:           collector,
		config:            cfg,
		logger:            logger.With(zap.String("component", "service")),
		tracer:            otel.Tracer(tracerName),
		adminPasswordHash: hash,
		now:               time.Now,
	}, nil
}
