// Package rpc exposes read-only discovery over JSON-RPC for internal clients.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/exchange/internal/domain"
	"github.com/xiaot623/gogo/exchange/internal/service"
)

// ServiceName is the name RPC clients prefix methods with.
const ServiceName = "Exchange"

const callTimeout = 10 * time.Second

// Server exposes internal RPC endpoints for discovery clients.
type Server struct {
	mu        sync.Mutex
	listener  net.Listener
	rpcServer *rpc.Server
	logger    *zap.Logger
	done      chan struct{}
}

// NewServer creates a new RPC server bound to the exchange service.
func NewServer(svc *service.Service, logger *zap.Logger) (*Server, error) {
	rpcServer := rpc.NewServer()
	handler := &Handler{service: svc}
	if err := rpcServer.RegisterName(ServiceName, handler); err != nil {
		return nil, fmt.Errorf("register rpc handler: %w", err)
	}

	return &Server{
		rpcServer: rpcServer,
		logger:    logger.With(zap.String("component", "rpc")),
		done:      make(chan struct{}),
	}, nil
}

// Start begins accepting RPC connections on the given address.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts RPC connections on ln until it is closed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				close(s.done)
				return nil
			}
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}

		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// Shutdown stops accepting new RPC connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return nil
	}

	if err := ln.Close(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler implements exchange RPC methods.
type Handler struct {
	service *service.Service
}

// GetAgentArgs identifies an agent by ID, or by handle when Ref starts with "@".
type GetAgentArgs struct {
	Ref string `json:"ref"`
}

// SearchStructured runs a structured discovery search.
func (h *Handler) SearchStructured(req *domain.StructuredSearchRequest, resp *domain.StructuredSearchResponse) error {
	if req == nil {
		return errors.New("search request is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	result, err := h.service.SearchStructured(ctx, *req)
	if err != nil {
		return err
	}
	if resp != nil && result != nil {
		*resp = *result
	}
	return nil
}

// SearchIntent runs a free-text discovery search.
func (h *Handler) SearchIntent(req *domain.IntentSearchRequest, resp *domain.IntentSearchResponse) error {
	if req == nil {
		return errors.New("intent request is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	result, err := h.service.SearchIntent(ctx, *req)
	if err != nil {
		return err
	}
	if resp != nil && result != nil {
		*resp = *result
	}
	return nil
}

// GetAgent returns the public summary of one agent.
func (h *Handler) GetAgent(req *GetAgentArgs, resp *domain.AgentSummary) error {
	if req == nil || strings.TrimSpace(req.Ref) == "" {
		return errors.New("ref is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	var (
		summary *domain.AgentSummary
		err     error
	)
	if strings.HasPrefix(req.Ref, "@") {
		summary, err = h.service.GetAgentByHandle(ctx, req.Ref)
	} else {
		summary, err = h.service.GetAgent(ctx, req.Ref)
	}
	if err != nil {
		return err
	}
	if resp != nil && summary != nil {
		*resp = *summary
	}
	return nil
}
