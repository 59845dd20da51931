package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/fleetd/internal/metrics"
)

// RPCHandler handles JSON-RPC method dispatch.
type RPCHandler interface {
	Handle(ctx context.Context, tenantID, method string, params json.RawMessage) (any, error)
}

// CodedError is an application error carrying a stable string code.
type CodedError interface {
	error
	CodeValue() string
	MessageValue() string
}

// Options configures the router.
type Options struct {
	Handler RPCHandler
	// Auth resolves the tenant for /rpc.
	Auth func(http.Handler) http.Handler
	// MCP is mounted at /mcp when set.
	MCP http.Handler
	// Metrics is served at /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler RPCHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{handler: opts.Handler, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	// The MCP server authenticates through its own middleware.
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Post("/rpc", srv.handleRPC)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		code := ErrInvalidReq
		if errors.Is(err, errParse) {
			code = ErrParseCode
		}
		WriteError(w, nil, code, err.Error(), nil)
		return
	}

	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	timer := metrics.NewTimer()
	result, err := s.handler.Handle(r.Context(), tenantID, req.Method, req.Params)
	timer.ObserveDurationVec(metrics.RPCRequestDuration, req.Method)

	if err != nil {
		code, rpcErr := toRPCError(err)
		metrics.RPCRequestsTotal.WithLabelValues(req.Method, code).Inc()
		if rpcErr.Code == ErrInternal {
			s.logger.Error("rpc failed", "method", req.Method, "tenant_id", tenantID, "error", err)
		}
		writeJSON(w, http.StatusOK, Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID})
		return
	}

	metrics.RPCRequestsTotal.WithLabelValues(req.Method, "ok").Inc()
	WriteResult(w, req.ID, result)
}

// toRPCError maps handler errors onto JSON-RPC error objects. The string
// code of a CodedError travels in data.code.
func toRPCError(err error) (string, *Error) {
	var coded CodedError
	if !errors.As(err, &coded) {
		return "INTERNAL", &Error{Code: ErrInternal, Message: "internal error"}
	}

	code := coded.CodeValue()
	rpcCode := ErrServer
	switch code {
	case "METHOD_NOT_FOUND":
		rpcCode = ErrMethodNotFound
	case "INVALID_INPUT":
		rpcCode = ErrInvalidParams
	}
	return code, &Error{
		Code:    rpcCode,
		Message: coded.MessageValue(),
		Data:    map[string]string{"code": code},
	}
}
