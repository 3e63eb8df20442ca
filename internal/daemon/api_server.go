package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studio/internal/api"
	"studio/internal/config"
	"studio/internal/gateway"
	"studio/internal/logging"
	"studio/internal/services"
)

// maxRequestBody bounds request bodies; free-create references arrive base64
// encoded inline.
const maxRequestBody = 64 << 20

type apiServer struct {
	bind    string
	token   string
	logger  *slog.Logger
	daemon  *Daemon
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.API.Bind),
		token:  strings.TrimSpace(cfg.API.Token),
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/tasks", srv.handleTasks)
	mux.HandleFunc("/api/controls", srv.handleControls)
	mux.HandleFunc("/api/invoke-image", srv.handleInvokeImage)
	mux.HandleFunc("/api/batch", srv.handleBatch)
	mux.HandleFunc("/api/test-notification", srv.handleTestNotification)
	mux.HandleFunc("/api/logs", srv.handleLogs)

	mux.HandleFunc("/api/generate-tts", srv.handleGenerateTTS)
	mux.HandleFunc("/api/generate-image-text", srv.handleGenerateImageText)
	mux.HandleFunc("/api/generate-image-reference", srv.handleGenerateImageReference)
	mux.HandleFunc("/api/get-image", srv.handleGetImage)
	mux.HandleFunc("/api/save-draft", srv.handleSaveDraft)
	mux.HandleFunc("/api/load-draft", srv.handleLoadDraft)
	mux.HandleFunc("/api/clear-draft", srv.handleClearDraft)
	mux.HandleFunc("/api/save-copywriting", srv.handleSaveCopywriting)
	mux.HandleFunc("/api/generate-copywriting", srv.handleGenerateCopywriting)
	mux.HandleFunc("/api/default-tts-config", srv.handleDefaultTTSConfig)
	mux.HandleFunc("/api/open-tts-folder", srv.handleOpenFolder(gateway.FolderTTS))
	mux.HandleFunc("/api/open-project-folder", srv.handleOpenFolder(gateway.FolderProject))
	mux.HandleFunc("/api/open-image-folder", srv.handleOpenFolder(gateway.FolderImage))
	mux.HandleFunc("/api/free-create-image", srv.handleFreeCreate)
	mux.HandleFunc("/api/save-free-create-image", srv.handleSaveFreeCreate)
	mux.HandleFunc("/api/free-create-history", srv.handleFreeCreateHistory)

	srv.handler = corsMiddleware(authMiddleware(srv.token, srv.withRequestID(mux)))
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Generation calls hold the response open for the upstream timeout.
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

// Handler exposes the routed API without a listener.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := services.WithRequestID(r.Context(), id)
		ctx = services.WithSessionID(ctx, s.daemon.session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *apiServer) allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	s.writeJSON(w, http.StatusMethodNotAllowed, api.ErrorResponse{Message: "method not allowed"})
	return false
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Message: "invalid request body: " + err.Error(),
			Kind:    string(services.KindValidation),
		})
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

// writeError maps err onto an HTTP status and a {success:false} body.
func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.Classify(err)
	status := statusFor(kind)
	logger := logging.WithContext(r.Context(), s.log())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			logging.String("path", r.URL.Path),
			logging.String("kind", string(kind)),
			logging.Error(err),
		)
	} else {
		logger.Debug("request rejected",
			logging.String("path", r.URL.Path),
			logging.String("kind", string(kind)),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, api.ErrorResponse{Message: services.Reason(err), Kind: string(kind)})
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindTransport, services.KindSemantic, services.KindTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
