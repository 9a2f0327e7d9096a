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
	"time"

	"envision/internal/api"
	"envision/internal/lexicon"
	"envision/internal/logging"
	"envision/internal/services"
	"envision/internal/vision"
)

const maxBodyBytes = 64 << 10

// visionService is the workflow the API exposes. *vision.Service satisfies it.
type visionService interface {
	Create(ctx context.Context, userID string) (*vision.Session, error)
	List(ctx context.Context, userID string) ([]*vision.Session, error)
	Get(ctx context.Context, userID, visionID string) (*vision.Session, error)
	Delete(ctx context.Context, userID, visionID string) error
	SubmitResponse(ctx context.Context, userID, visionID string, sub vision.Submission) (*vision.SubmitResult, error)
	NextQuestion(ctx context.Context, userID, visionID string) (*vision.NextQuestion, error)
	Process(ctx context.Context, userID, visionID string) error
}

type apiServer struct {
	bind    string
	logger  *slog.Logger
	auth    authenticator
	service visionService
	health  func(ctx context.Context) api.HealthResponse

	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind string, auth authenticator, service visionService, health func(context.Context) api.HealthResponse, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:    strings.TrimSpace(bind),
		logger:  logger,
		auth:    auth,
		service: service,
		health:  health,
	}
	srv.server = &http.Server{
		Handler:           srv.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Answer submission and question generation wait on the provider.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func (s *apiServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /visions", s.authMiddleware(s.handleCreate))
	mux.HandleFunc("GET /visions", s.authMiddleware(s.handleList))
	mux.HandleFunc("GET /visions/{id}", s.authMiddleware(s.handleGet))
	mux.HandleFunc("DELETE /visions/{id}", s.authMiddleware(s.handleDelete))
	mux.HandleFunc("POST /visions/{id}/next-question", s.authMiddleware(s.handleNextQuestion))
	mux.HandleFunc("POST /visions/{id}/response", s.authMiddleware(s.handleSubmit))
	mux.HandleFunc("POST /visions/{id}/process", s.authMiddleware(s.handleProcess))
	return s.requestMiddleware(mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

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
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := api.HealthResponse{Status: "ok"}
	if s.health != nil {
		payload = s.health(r.Context())
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := services.UserIDFromContext(r.Context())
	session, err := s.service.Create(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.VisionResponse{Vision: api.FromSessionDetail(session)})
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := services.UserIDFromContext(r.Context())
	sessions, err := s.service.List(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSessions(sessions))
}

func (s *apiServer) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := services.UserIDFromContext(r.Context())
	session, err := s.service.Get(r.Context(), user, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.VisionResponse{Vision: api.FromSessionDetail(session)})
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := services.UserIDFromContext(r.Context())
	if err := s.service.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := services.UserIDFromContext(r.Context())
	next, err := s.service.NextQuestion(r.Context(), user, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.NextQuestionResponse{Question: next.Question, Category: string(next.Category)})
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, _ := services.UserIDFromContext(r.Context())
	res, err := s.service.SubmitResponse(r.Context(), user, r.PathValue("id"), vision.Submission{
		Category: lexicon.Category(req.Category),
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSubmitResult(res))
}

func (s *apiServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	user, _ := services.UserIDFromContext(r.Context())
	if err := s.service.Process(r.Context(), user, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.ProcessResponse{Status: string(vision.StatusProcessing)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return services.Wrap(services.ErrValidation, "api", "decode", "request body is empty", nil)
		}
		return services.Wrap(services.ErrValidation, "api", "decode", "invalid JSON body", err)
	}
	return nil
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

// writeError maps err to its status and code. Internal failures are logged
// and reported without detail.
func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	code := services.ErrorCode(err)
	message := err.Error()
	logger := logging.WithContext(r.Context(), s.log())
	if status >= http.StatusInternalServerError {
		if status == http.StatusInternalServerError {
			message = "internal error"
		}
		logging.ErrorWithContext(logger, "request failed", "api_request_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorCode, code),
			logging.String("path", r.URL.Path),
		)
	} else {
		logger.Debug("request rejected",
			logging.String(logging.FieldErrorCode, code),
			logging.String("reason", message),
		)
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Code: code})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
