package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"mintgate/ledger"
	"mintgate/native/mint"
	"mintgate/observability"
	"mintgate/storage"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeMintRejected   = -32050
)

// Server exposes the minting engine over JSON-RPC 2.0. All mutating engine
// calls are serialized by a single mutex, standing in for the transaction
// serialization of a hosting ledger.
type Server struct {
	mu sync.Mutex

	engine *mint.Engine
	tokens *ledger.Ledger
	db     storage.Database
	owner  [20]byte

	authToken string
	logger    *slog.Logger
	metrics   *observability.MintMetrics
}

// Options configures optional server collaborators.
type Options struct {
	// AuthToken gates owner-privileged methods. Empty disables them.
	AuthToken string
	// DB, when set, receives an engine state snapshot after every
	// committed mutation.
	DB storage.Database
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewServer wires the RPC surface. The owner address is the principal used
// for owner-gated engine calls once the bearer token checks out.
func NewServer(engine *mint.Engine, tokens *ledger.Ledger, owner [20]byte, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		tokens:    tokens,
		db:        opts.DB,
		owner:     owner,
		authToken: strings.TrimSpace(opts.AuthToken),
		logger:    logger,
		metrics:   observability.Mint(),
	}
}

// Router assembles the chi router: JSON-RPC on POST /, liveness on /healthz.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/", s.handle)
	return r
}

// Start serves the router on addr and blocks.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	return srv.ListenAndServe()
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		s.writeError(w, nil, codeParseError, "unable to read request body")
		return
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		s.writeError(w, req.ID, codeInvalidRequest, "invalid JSON-RPC request")
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		s.writeError(w, req.ID, codeMethodNotFound, "unknown method "+req.Method)
		return
	}
	if handler.ownerOnly && !s.authorized(r) {
		s.writeError(w, req.ID, codeUnauthorized, "missing or invalid bearer token")
		return
	}

	requestID := uuid.NewString()
	started := time.Now()
	result, rerr := handler.fn(req.Params)
	s.metrics.ObserveLatency(req.Method, time.Since(started).Seconds())
	if rerr != nil {
		s.logger.Info("rpc request failed",
			slog.String("request", requestID),
			slog.String("method", req.Method),
			slog.String("error", rerr.Message),
		)
		s.writeResponse(w, rpcResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rerr})
		return
	}
	s.logger.Debug("rpc request served",
		slog.String("request", requestID),
		slog.String("method", req.Method),
	)
	s.writeResponse(w, rpcResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	supplied := strings.TrimSpace(header[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

// persist snapshots engine state after a committed mutation.
func (s *Server) persist() {
	if s.db == nil {
		return
	}
	if err := s.engine.Save(s.db); err != nil {
		s.logger.Error("failed to persist engine state", slog.Any("error", err))
	}
}

// engineError translates named engine failures into JSON-RPC errors, keeping
// the error kind observable in the data field.
func engineError(err error) *rpcError {
	code := codeMintRejected
	switch {
	case errors.Is(err, mint.ErrNotOwner):
		code = codeUnauthorized
	case errors.Is(err, mint.ErrInvalidStage),
		errors.Is(err, mint.ErrInvalidStartAndEndTimestamp),
		errors.Is(err, mint.ErrInsufficientStageTimeGap),
		errors.Is(err, mint.ErrGlobalWalletLimitOverflow),
		errors.Is(err, mint.ErrCannotIncreaseMaxMintableSupply),
		errors.Is(err, mint.ErrSupplyBelowMinted):
		code = codeInvalidParams
	}
	return &rpcError{Code: code, Message: err.Error(), Data: errorKind(err)}
}

func errorKind(err error) string {
	for kind, target := range map[string]error{
		"Ownable":                         mint.ErrNotOwner,
		"NotMintable":                     mint.ErrNotMintable,
		"InvalidStage":                    mint.ErrInvalidStage,
		"InvalidStartAndEndTimestamp":     mint.ErrInvalidStartAndEndTimestamp,
		"InsufficientStageTimeGap":        mint.ErrInsufficientStageTimeGap,
		"NotEnoughValue":                  mint.ErrNotEnoughValue,
		"NoSupplyLeft":                    mint.ErrNoSupplyLeft,
		"StageSupplyExceeded":             mint.ErrStageSupplyExceeded,
		"WalletStageLimitExceeded":        mint.ErrWalletStageLimitExceeded,
		"WalletGlobalLimitExceeded":       mint.ErrWalletGlobalLimitExceeded,
		"GlobalWalletLimitOverflow":       mint.ErrGlobalWalletLimitOverflow,
		"CannotIncreaseMaxMintableSupply": mint.ErrCannotIncreaseMaxMintableSupply,
		"SupplyBelowMinted":               mint.ErrSupplyBelowMinted,
		"InvalidProof":                    mint.ErrInvalidProof,
		"CosignerNotSet":                  mint.ErrCosignerNotSet,
		"InvalidCosignSignature":          mint.ErrInvalidCosignSignature,
		"TimestampExpired":                mint.ErrTimestampExpired,
		"CrossmintOnly":                   mint.ErrCrossmintOnly,
		"CrossmintAddressNotSet":          mint.ErrCrossmintAddressNotSet,
		"URIQueryForNonexistentToken":     mint.ErrNonexistentToken,
		"CannotUpdatePermanentBaseURI":    mint.ErrPermanentBaseURI,
		"ReentrancyGuard":                 mint.ErrReentrantCall,
	} {
		if errors.Is(err, target) {
			return kind
		}
	}
	return "InternalError"
}

func (s *Server) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	s.writeResponse(w, rpcResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}

func (s *Server) writeResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode rpc response", slog.Any("error", err))
	}
}
