package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/go-textfreq/internal/config"
	"github.com/example/go-textfreq/internal/metrics"
	"github.com/example/go-textfreq/internal/processor"
	"github.com/example/go-textfreq/internal/report"
	"github.com/example/go-textfreq/internal/text"
	"github.com/example/go-textfreq/internal/tokenizer"
)

// RequestIDHeader carries the per-request ID on responses. An incoming value
// is reused when present.
const RequestIDHeader = "X-Request-ID"

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	workers        int
	requestTimeout time.Duration
	encoding       string
	bufferSize     int
	nfc            bool
	logger         *slog.Logger
	recorder       metrics.Recorder
	gatherer       prometheus.Gatherer
}

func defaultOptions() options {
	return options{
		workers:        2,
		requestTimeout: 60 * time.Second,
		encoding:       text.EncodingUTF8,
		bufferSize:     tokenizer.DefaultBufferSize,
		logger:         slog.Default(),
		recorder:       metrics.Nop{},
		gatherer:       metrics.Registry,
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithWorkers sets the maximum number of concurrent analyses. n <= 0 removes
// the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request analysis deadline. 0 disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithEncoding sets the source encoding used for every request.
func WithEncoding(enc string) Option {
	return func(o *options) { o.encoding = enc }
}

// WithBufferSize sets the tokenizer chunk size used for every request.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithNFC enables Unicode NFC composition of sources.
func WithNFC(enabled bool) Option {
	return func(o *options) { o.nfc = enabled }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder sets the metrics sink handed to each request's processor.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) { o.gatherer = g }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type requestIDKey struct{}

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	rootDir string
	opts    options
	sem     chan struct{} // semaphore for worker pool
	log     *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /metrics and the
// /v1 analysis routes over .txt files below rootDir.
func NewHandler(rootDir string, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		rootDir: rootDir,
		opts:    opts,
		log:     opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	r := mux.NewRouter()
	r.Use(h.withRequestID)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(opts.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/v1/tokens", h.handleTokens).Methods(http.MethodGet)
	r.HandleFunc("/v1/frequencies/{kind}", h.handleFrequencies).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handleTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	distinct := false
	if raw := q.Get("distinct"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid distinct value %q", raw))
			return
		}
		distinct = v
	}

	op := processor.OpTokens
	if distinct {
		op = processor.OpDistinct
	}

	h.analyze(w, r, op, q.Get("file"), func(ctx context.Context, p *processor.Processor, file string) (any, error) {
		return report.BuildTokens(ctx, p, distinct, file)
	})
}

func (h *handler) handleFrequencies(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	if !isFrequencyOp(kind) {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("unknown frequency kind %q (expected one of %s)", kind, strings.Join(report.FrequencyOps(), ", ")))
		return
	}

	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	h.analyze(w, r, kind, q.Get("file"), func(ctx context.Context, p *processor.Processor, file string) (any, error) {
		rep, err := report.Build(ctx, p, kind, file)
		if err != nil {
			return nil, err
		}
		return rep.Truncate(limit), nil
	})
}

type analyzeFunc func(ctx context.Context, p *processor.Processor, file string) (any, error)

// analyze resolves file, waits for a worker slot and runs fn on a fresh
// processor under the request timeout.
func (h *handler) analyze(w http.ResponseWriter, r *http.Request, op, file string, fn analyzeFunc) {
	name, err := h.resolve(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	root, err := os.OpenRoot(h.rootDir)
	if err != nil {
		h.log.ErrorContext(r.Context(), "open served directory",
			slog.String("request_id", requestID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "source directory unavailable")
		return
	}
	defer func() { _ = root.Close() }()

	p, err := processor.NewFile(name,
		processor.WithRoot(root),
		processor.WithEncoding(h.opts.encoding),
		processor.WithBufferSize(h.opts.bufferSize),
		processor.WithNFC(h.opts.nfc),
		processor.WithLogger(h.log),
		processor.WithRecorder(h.opts.recorder),
	)
	if err != nil {
		status := statusFor(err)
		writeError(w, status, publicMessage(status, err))
		return
	}

	// Acquire a worker slot and honour context cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
			// slot acquired
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	ctx := r.Context()
	if h.opts.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	body, err := fn(ctx, p, file)
	durationMS := time.Since(start).Milliseconds()

	attrs := []any{
		slog.String("request_id", requestID(r.Context())),
		slog.String("op", op),
		slog.String("path", file),
		slog.Int64("duration_ms", durationMS),
	}

	if err != nil {
		status := statusFor(err)
		attrs = append(attrs, slog.Int("status", status), slog.String("error", err.Error()))
		if status >= http.StatusInternalServerError {
			h.log.ErrorContext(r.Context(), "analysis failed", attrs...)
		} else {
			h.log.WarnContext(r.Context(), "analysis rejected", attrs...)
		}
		writeError(w, status, publicMessage(status, err))
		return
	}

	h.log.InfoContext(r.Context(), "analysis complete", append(attrs, slog.Int("status", http.StatusOK))...)
	writeJSON(w, http.StatusOK, body)
}

// resolve checks a request file name and returns it cleaned, relative to
// rootDir. Absolute paths, ".." and symlinks leading outside rootDir are
// rejected.
func (h *handler) resolve(file string) (string, error) {
	if strings.TrimSpace(file) == "" {
		return "", errors.New("file query parameter is required")
	}
	if !filepath.IsLocal(file) {
		return "", fmt.Errorf("file %q must be a relative path inside the served directory", file)
	}
	if !processor.ValidSourcePath(file) {
		return "", fmt.Errorf("file %q: expected a %s file", file, processor.SourceExt)
	}

	name := filepath.Clean(file)
	if !h.contains(name) {
		return "", fmt.Errorf("file %q resolves outside the served directory", file)
	}
	return name, nil
}

// contains reports whether name, with symlinks followed, stays below rootDir.
// Names that do not resolve yet are left to the scan, which opens them
// through an os.Root and reports them as missing.
func (h *handler) contains(name string) bool {
	rootReal, err := filepath.EvalSymlinks(h.rootDir)
	if err != nil {
		return true
	}
	target, err := filepath.EvalSymlinks(filepath.Join(h.rootDir, name))
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(rootReal, target)
	return err == nil && filepath.IsLocal(rel)
}

func isFrequencyOp(kind string) bool {
	for _, op := range report.FrequencyOps() {
		if op == kind {
			return true
		}
	}
	return false
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, processor.ErrInvalidSourcePath):
		return http.StatusBadRequest
	case errors.Is(err, processor.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage keeps server-side paths out of responses.
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusNotFound:
		return "source file not found"
	case http.StatusGatewayTimeout:
		return "analysis timed out"
	case http.StatusServiceUnavailable:
		return "request cancelled"
	case http.StatusBadRequest:
		return err.Error()
	default:
		return "source file unreadable"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server wires the handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	recorder        metrics.Recorder
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New returns a Server for cfg. Scan metrics go to metrics.Default.
func New(cfg config.Config) *Server {
	return &Server{
		cfg:             cfg,
		recorder:        metrics.Default(),
		logger:          slog.Default(),
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger overrides the request logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	h := NewHandler(cfg.Server.RootDir,
		WithWorkers(cfg.Server.Workers),
		WithRequestTimeout(time.Duration(cfg.Server.RequestTimeout)*time.Second),
		WithEncoding(cfg.Source.Encoding),
		WithBufferSize(cfg.Source.BufferSize),
		WithNFC(cfg.Source.NFC),
		WithLogger(s.logger),
		WithRecorder(s.recorder),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.InfoContext(ctx, "server listening",
		slog.String("addr", cfg.Server.ListenAddr),
		slog.String("root_dir", cfg.Server.RootDir),
		slog.Int("workers", cfg.Server.Workers),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
