package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nerraj-droid/bisig-final-sub001/auth"
	"github.com/nerraj-droid/bisig-final-sub001/blotter"
	"github.com/nerraj-droid/bisig-final-sub001/hearing"
	"github.com/nerraj-droid/bisig-final-sub001/resident"
)

type ctxKey string

const (
	ctxKeyUserID ctxKey = "user_id"
	ctxKeyRole   ctxKey = "role"
)

// headerOfficialID identifies the acting official when the server runs
// without authentication (the offline bolt store).
const headerOfficialID = "X-Official-ID"

const maxBodyBytes = 1 << 20

type caseService interface {
	CreateCase(ctx context.Context, nc blotter.NewCase) (blotter.Case, error)
	GetCase(ctx context.Context, id string) (blotter.Case, error)
	ListCases(ctx context.Context, filters blotter.Filters) (blotter.ListResult, error)
	History(ctx context.Context, caseID string) ([]blotter.StatusUpdate, error)
	Steps(ctx context.Context, caseID string) ([]blotter.Step, error)
	ProposeTransition(ctx context.Context, req blotter.TransitionRequest) (blotter.Case, error)
	ConfirmFilingFee(ctx context.Context, req blotter.PaymentRequest) (blotter.Case, error)
}

type hearingService interface {
	ListForCase(ctx context.Context, caseID string) ([]hearing.Record, error)
	Schedule(ctx context.Context, in hearing.NewHearing) (hearing.Record, error)
	Update(ctx context.Context, id string, ch hearing.Change) (hearing.Record, error)
}

type residentService interface {
	Get(ctx context.Context, id string) (resident.Resident, error)
	Search(ctx context.Context, name string, limit int) ([]resident.Resident, error)
}

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest, by auth.Role) (*auth.Official, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	GetOfficialByID(ctx context.Context, id string) (*auth.Official, error)
	VerifyToken(token string) (string, auth.Role, error)
}

// Server wires the HTTP surface to the domain services. Services left nil
// are not available with the configured store and answer 501.
type Server struct {
	caseService     caseService
	hearingService  hearingService
	residentService residentService
	authService     authService
	timeout         time.Duration
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.withTimeout)

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)

	authed.HandleFunc("/cases", s.handleListCases).Methods(http.MethodGet)
	authed.HandleFunc("/cases", s.handleCreateCase).Methods(http.MethodPost)
	authed.HandleFunc("/cases/{id}", s.handleGetCase).Methods(http.MethodGet)
	authed.HandleFunc("/cases/{id}/history", s.handleHistory).Methods(http.MethodGet)
	authed.HandleFunc("/cases/{id}/steps", s.handleSteps).Methods(http.MethodGet)
	authed.HandleFunc("/cases/{id}/transitions", s.handleTransition).Methods(http.MethodPost)
	authed.Handle("/cases/{id}/payment", s.requireRole(http.HandlerFunc(s.handlePayment), auth.RoleCaptain, auth.RoleSecretary)).Methods(http.MethodPost)
	authed.HandleFunc("/cases/{id}/hearings", s.handleListHearings).Methods(http.MethodGet)
	authed.HandleFunc("/cases/{id}/hearings", s.handleScheduleHearing).Methods(http.MethodPost)
	authed.HandleFunc("/hearings/{id}", s.handleUpdateHearing).Methods(http.MethodPatch)

	authed.HandleFunc("/residents", s.handleSearchResidents).Methods(http.MethodGet)
	authed.HandleFunc("/residents/{id}", s.handleGetResident).Methods(http.MethodGet)

	authed.HandleFunc("/workflow", s.handleWorkflow).Methods(http.MethodGet)
	authed.HandleFunc("/workflow/{status}", s.handleWorkflowStatus).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Detail: "no such route"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method_not_allowed"})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

// withTimeout bounds every API request by the configured timeout.
func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.timeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth verifies the bearer token and stores the official id and role
// on the request context. Without an auth service the acting official is
// taken from the X-Official-ID header.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authService == nil {
			ctx := context.WithValue(r.Context(), ctxKeyUserID, strings.TrimSpace(r.Header.Get(headerOfficialID)))
			ctx = context.WithValue(ctx, ctxKeyRole, auth.RoleCaptain)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Detail: "missing bearer token"})
			return
		}
		userID, role, err := s.authService.VerifyToken(token)
		if err != nil {
			zap.S().Debugw("rejected token", "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Detail: "invalid token"})
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = context.WithValue(ctx, ctxKeyRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRole(next http.Handler, roles ...auth.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(ctxKeyRole).(auth.Role)
		for _, allowed := range roles {
			if role == allowed {
				next.ServeHTTP(w, r)
				return
			}
		}
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Detail: "role " + string(role) + " may not perform this action"})
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[7:])
	return token, token != ""
}

func actorID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyUserID).(string)
	return id
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		detail := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			detail = "empty body"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: detail})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Warnw("failed to write response", "error", err)
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
}

// writeError maps domain errors onto HTTP statuses and logs everything that
// falls through to 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Detail: err.Error()}
	status := http.StatusInternalServerError

	var verr *blotter.ValidationError
	if errors.As(err, &verr) {
		resp.Field = string(verr.Field)
	}
	var missing *blotter.MissingDecisionError
	if errors.As(err, &missing) {
		resp.Field = string(missing.Field)
	}

	switch kind := blotter.ErrorKind(err); {
	case kind == "invalid_transition":
		status, resp.Error = http.StatusConflict, kind
	case kind == "missing_decision", kind == "validation":
		status, resp.Error = http.StatusUnprocessableEntity, kind
	case kind == "conflict":
		status, resp.Error = http.StatusConflict, kind
	case kind == "not_found":
		status, resp.Error = http.StatusNotFound, kind
	case errors.Is(err, blotter.ErrCaseTerminal), errors.Is(err, hearing.ErrCaseClosed):
		status, resp.Error = http.StatusConflict, "case_terminal"
	case errors.Is(err, blotter.ErrDuplicateCaseNumber), errors.Is(err, auth.ErrDuplicateEmail):
		status, resp.Error = http.StatusConflict, "conflict"
	case errors.Is(err, hearing.ErrNotFound), errors.Is(err, hearing.ErrCaseNotFound),
		errors.Is(err, resident.ErrNotFound), errors.Is(err, auth.ErrOfficialNotFound):
		status, resp.Error = http.StatusNotFound, "not_found"
	case errors.Is(err, hearing.ErrBadStatus):
		status, resp.Error = http.StatusConflict, "invalid_transition"
	case errors.Is(err, hearing.ErrInvalidInput), errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidRegistration):
		status, resp.Error = http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, resp.Error = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrForbidden):
		status, resp.Error = http.StatusForbidden, "forbidden"
	case errors.Is(err, context.DeadlineExceeded):
		status, resp.Error, resp.Detail = http.StatusGatewayTimeout, "timeout", "the request took too long to process"
	default:
		zap.S().Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Error, resp.Detail = "internal", "internal server error"
	}

	writeJSON(w, status, resp)
}

func unavailable(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "unavailable", Detail: what + " require the postgres store"})
}
