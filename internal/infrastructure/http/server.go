// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
	"github.com/0xcro3dile/faqbot-go/internal/domain/usecases"
)

// maxBodyBytes caps inbound JSON bodies.
const maxBodyBytes = 1 << 20

// Options configures the server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    float64 // requests/sec across all clients, 0 disables
	RateBurst    int
	Title        string       // shown on the chat page
	Metrics      http.Handler // mounted at /metrics when set
}

// Server is the HTTP server for the chat API and UI.
type Server struct {
	chat    *usecases.ChatUseCase
	logger  *zap.Logger
	opts    Options
	limiter *rate.Limiter
}

// NewServer creates a new HTTP server.
func NewServer(chat *usecases.ChatUseCase, logger *zap.Logger, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":5000"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}
	if opts.Title == "" {
		opts.Title = "Campus Assistant"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{chat: chat, logger: logger, opts: opts}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// UI
	mux.HandleFunc("/", s.handleIndex)

	// API
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/api/retrieve", s.handleRetrieve)
	mux.HandleFunc("/api/health", s.handleHealth)
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}

	return s.requestIDMiddleware(s.loggingMiddleware(corsMiddleware(s.rateLimitMiddleware(mux))))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("server starting", zap.String("addr", s.opts.Addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleChat answers one message. The body is parsed as JSON whatever the
// Content-Type says.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp := s.chat.Chat(r.Context(), &entities.ChatRequest{Message: req.Message})
	writeJSON(w, http.StatusOK, chatResponse{Reply: resp.Reply})
}

type retrieveRequest struct {
	Query string `json:"query"`
}

type retrieveResult struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Source   string  `json:"source,omitempty"`
	Score    float64 `json:"score"`
}

type retrieveResponse struct {
	Results   []retrieveResult `json:"results"`
	Grounded  bool             `json:"grounded"`
	Threshold float64          `json:"threshold"`
}

// handleRetrieve exposes ranking and gating without generation.
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var query string
	switch r.Method {
	case http.MethodGet:
		query = r.URL.Query().Get("q")
	case http.MethodPost:
		var req retrieveRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		query = req.Query
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	results, grounded := s.chat.Search(query)
	out := retrieveResponse{
		Results:   make([]retrieveResult, len(results)),
		Grounded:  grounded,
		Threshold: s.chat.Threshold(),
	}
	for i, res := range results {
		out.Results[i] = retrieveResult{
			Question: res.Entry.Question,
			Answer:   res.Entry.Answer,
			Source:   res.Entry.Source,
			Score:    res.Score,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"entries": s.chat.CorpusSize(),
	})
}

// handleIndex renders the chat UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.opts); err != nil {
		s.logger.Error("rendering index", zap.Error(err))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
        #messages { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; height: 60vh; overflow-y: auto; }
        .message { margin: .5rem 0; padding: .5rem .75rem; border-radius: 6px; white-space: pre-wrap; }
        .user { background: #e8f0fe; text-align: right; }
        .assistant { background: #f1f3f4; }
        form { display: flex; gap: .5rem; margin-top: 1rem; }
        input { flex: 1; padding: .5rem; }
    </style>
</head>
<body>
    <header>
        <h1>{{.Title}}</h1>
    </header>

    <main>
        <div id="messages"></div>
        <form id="chat-form">
            <input type="text" id="chat-input" placeholder="Ask a question..." autocomplete="off">
            <button type="submit">Send</button>
        </form>
    </main>

    <script>
        const messages = document.getElementById('messages');
        const input = document.getElementById('chat-input');

        function addMessage(cls, text) {
            const div = document.createElement('div');
            div.className = 'message ' + cls;
            div.textContent = text;
            messages.appendChild(div);
            messages.scrollTop = messages.scrollHeight;
            return div;
        }

        document.getElementById('chat-form').addEventListener('submit', async function(e) {
            e.preventDefault();
            const text = input.value;
            input.value = '';
            addMessage('user', text);
            const pending = addMessage('assistant', '...');
            try {
                const resp = await fetch('/chat', {
                    method: 'POST',
                    headers: {'Content-Type': 'application/json'},
                    body: JSON.stringify({message: text})
                });
                const data = await resp.json();
                pending.textContent = data.reply || data.error || 'No response';
            } catch (err) {
                pending.textContent = 'Connection error';
            }
        });
    </script>
</body>
</html>`))

// statusRecorder captures the response status for access logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", RequestID(r.Context())),
		)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
