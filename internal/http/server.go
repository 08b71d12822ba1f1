package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	applog "contas/internal/log"
	appweb "contas/web"
)

type Server struct {
	http.Server
	templates    *template.Template
	transactions TransactionStore
	cards        CardStore
	icons        IconStore
	backups      BackupStore
	limiter      *ipRateLimiter
	shutdownOnce sync.Once
}

// Deps carries the ports and tuning the server needs. Zero rate values fall
// back to a permissive default.
type Deps struct {
	Transactions TransactionStore
	Cards        CardStore
	Icons        IconStore
	Backups      BackupStore

	RateLimitRPS   int
	RateLimitBurst int
}

// ipRateLimiter keeps one token bucket per client IP and drops buckets that
// have been idle for a while.
type ipRateLimiter struct {
	mu           sync.Mutex
	limit        rate.Limit
	burst        int
	clients      map[string]*clientBucket
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(rps, burst int) *ipRateLimiter {
	if rps <= 0 {
		rps = 20
	}
	if burst < rps {
		burst = rps
	}
	rl := &ipRateLimiter{
		limit:       rate.Limit(rps),
		burst:       burst,
		clients:     make(map[string]*clientBucket),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *ipRateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[clientIP]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientIP] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (rl *ipRateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes buckets idle for more than 10 minutes.
func (rl *ipRateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *ipRateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// NewServer wires routes, middleware and embedded assets, returning a
// ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		transactions: deps.Transactions,
		cards:        deps.Cards,
		icons:        deps.Icons,
		backups:      deps.Backups,
		limiter:      newIPRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /{$}", s.wrap(s.handleIndex))

	mux.HandleFunc("GET /api/transactions", s.wrap(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.wrap(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions", s.wrap(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions", s.wrap(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/cards", s.wrap(s.handleListCards))
	mux.HandleFunc("POST /api/cards", s.wrap(s.handleCreateCard))
	mux.HandleFunc("PUT /api/cards/{id}", s.wrap(s.handleUpdateCard))
	mux.HandleFunc("DELETE /api/cards/{id}", s.wrap(s.handleDeleteCard))

	mux.HandleFunc("POST /api/card-expenses", s.wrap(s.handleCreateCardExpense))
	mux.HandleFunc("DELETE /api/card-expenses", s.wrap(s.handleDeleteCardExpense))

	mux.HandleFunc("GET /api/custom-icons", s.wrap(s.handleListIcons))
	mux.HandleFunc("POST /api/custom-icons", s.wrap(s.handleCreateIcon))
	mux.HandleFunc("DELETE /api/custom-icons", s.wrap(s.handleDeleteIcon))

	mux.HandleFunc("GET /api/backup", s.wrap(s.handleDownloadBackup))
	mux.HandleFunc("POST /api/backup", s.wrap(s.handleRestoreBackup))
	mux.HandleFunc("DELETE /api/backup", s.wrap(s.handleWipeBackup))

	return s
}

// Shutdown stops the limiter cleanup goroutine and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// wrap adds request IDs, structured request logging, security headers and
// per-IP rate limiting of mutating requests.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := clientAddr(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if r.Method != http.MethodGet && !s.limiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldComponent, applog.ComponentHTTP,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", "")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatus, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter captures the status code for the completion log line.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func clientAddr(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	data := struct {
		Year  int
		Month int
	}{
		Year:  time.Now().Year(),
		Month: int(time.Now().Month()),
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
