package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bighogz/form4-sales/internal/cache"
	"github.com/bighogz/form4-sales/internal/config"
	"github.com/bighogz/form4-sales/internal/export"
	"github.com/bighogz/form4-sales/internal/pipeline"
	"github.com/bighogz/form4-sales/internal/telemetry"
)

// runFunc runs the pipeline for one date.
type runFunc func(ctx context.Context, date time.Time) (*pipeline.Result, error)

type server struct {
	cfg     *config.Config
	store   *cache.Store
	writer  *export.Writer
	run     runFunc
	limiter *rateLimiter
	static  string

	// scanMu serializes scans so two runs never write the same exports.
	scanMu sync.Mutex
}

func newServer(cfg *config.Config, run runFunc) *server {
	return &server{
		cfg:   cfg,
		store: cache.New(cfg.Output.Dir, 0),
		writer: export.New(export.Options{
			Dir:        cfg.Output.Dir,
			Parquet:    cfg.Output.Parquet,
			SQLitePath: cfg.Output.SQLitePath,
		}),
		run:     run,
		limiter: newRateLimiter(time.Duration(cfg.Server.ScanIntervalSecs) * time.Second),
		static:  "static",
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", securityHeaders(s.serveIndex))
	mux.HandleFunc("/static/", securityHeaders(s.serveStatic))
	mux.HandleFunc("/api/health", securityHeaders(handleHealth))
	mux.HandleFunc("/api/sales", securityHeaders(s.handleSales))
	mux.HandleFunc("/api/sales/meta", securityHeaders(s.handleMeta))
	mux.HandleFunc("/api/scan", securityHeaders(s.adminOrRateLimit(s.handleScan)))
	return mux
}

func main() {
	if err := serve(); err != nil {
		fmt.Fprintln(os.Stderr, eris.ToString(err, false))
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer zap.L().Sync() //nolint:errcheck

	shutdownTrace, err := telemetry.Setup(cfg.Trace)
	if err != nil {
		return err
	}
	defer shutdownTrace(context.Background()) //nolint:errcheck

	p, err := pipeline.FromConfig(cfg, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newServer(cfg, p.Run).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(sctx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func (s *server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	indexPath := safeStaticPath(s.static, "index.html")
	if _, err := os.Stat(indexPath); err == nil {
		http.ServeFile(w, r, indexPath)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Frontend not found."})
}

func (s *server) serveStatic(w http.ResponseWriter, r *http.Request) {
	subpath := strings.TrimPrefix(r.URL.Path, "/static/")
	subpath = strings.TrimPrefix(subpath, "/")
	if subpath == "" || strings.Contains(subpath, "..") {
		http.NotFound(w, r)
		return
	}
	path := safeStaticPath(s.static, subpath)
	if path == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.store.Read(true)
	if errors.Is(err, cache.ErrNoData) {
		jsonResponse(w, http.StatusNotFound, map[string]string{"error": "No sales data yet. Run a scan first."})
		return
	}
	if err != nil {
		zap.L().Error("read sales export", zap.Error(err))
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "could not read sales data"})
		return
	}
	jsonResponse(w, http.StatusOK, snap)
}

func (s *server) handleMeta(w http.ResponseWriter, r *http.Request) {
	var ts *string
	if t := s.store.UpdatedAt(); t != nil {
		formatted := t.Format(time.RFC3339)
		ts = &formatted
	}
	jsonResponse(w, http.StatusOK, map[string]any{"last_updated": ts})
}

type scanResponse struct {
	RunID         string   `json:"run_id"`
	Date          string   `json:"date"`
	TotalReported int      `json:"total_reported"`
	Filings       int      `json:"filings"`
	Rows          int      `json:"rows"`
	SalesCount    int      `json:"sales_count"`
	Truncated     bool     `json:"truncated"`
	Files         []string `json:"files"`
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	date, err := pipeline.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		failureResponse(w, err)
		return
	}

	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	res, err := s.run(r.Context(), date)
	if err != nil {
		zap.L().Warn("scan failed", zap.String("date", date.Format(pipeline.DateLayout)), zap.Error(err))
		failureResponse(w, err)
		return
	}
	files, err := s.writer.WriteAll(r.Context(), res.RunID, res.DateString(), res.Sales)
	if err != nil {
		failureResponse(w, err)
		return
	}
	if files == nil {
		files = []string{}
	}
	jsonResponse(w, http.StatusOK, scanResponse{
		RunID:         res.RunID,
		Date:          res.DateString(),
		TotalReported: res.TotalReported,
		Filings:       res.Filings,
		Rows:          res.Rows,
		SalesCount:    len(res.Sales),
		Truncated:     res.Truncated,
		Files:         files,
	})
}

var failureStatus = map[pipeline.Category]int{
	pipeline.CategoryInput:         http.StatusBadRequest,
	pipeline.CategoryConfiguration: http.StatusInternalServerError,
	pipeline.CategoryUpstream:      http.StatusBadGateway,
	pipeline.CategoryTransport:     http.StatusGatewayTimeout,
	pipeline.CategoryUnexpected:    http.StatusInternalServerError,
}

func failureResponse(w http.ResponseWriter, err error) {
	f := pipeline.Classify(err)
	detail := f.Detail
	if f.Category == pipeline.CategoryUnexpected {
		// Stack traces stay in the logs.
		detail = err.Error()
	}
	jsonResponse(w, failureStatus[f.Category], map[string]string{
		"error":    f.Label,
		"category": f.Category.String(),
		"detail":   detail,
		"hint":     f.Hint,
	})
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
