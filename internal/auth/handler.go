package auth

import (
	"log/slog"
	"net/http"

	"github.com/microearn/backend/internal/httpx"
	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/validate"
)

// Request structs use snake_case JSON.

type SignInRequest struct {
	IDToken string `json:"id_token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SelectRoleRequest struct {
	Role models.Role `json:"role"`
}

type Handler struct {
	svc       Service
	validator *validate.Validator
	log       *slog.Logger
}

func NewHandler(svc Service, validator *validate.Validator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, validator: validator, log: log}
}

// POST /api/auth/signin
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := h.validator.Decode(r.Body, validate.SignIn, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	sess, err := h.svc.SignIn(r.Context(), req.IDToken)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sess)
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.validator.Decode(r.Body, validate.Login, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sess)
}

// POST /api/auth/select-role
func (h *Handler) SelectRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromCtx(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req SelectRoleRequest
	if err := h.validator.Decode(r.Body, validate.SelectRole, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	sess, err := h.svc.SelectRole(r.Context(), actor, req.Role)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sess)
}
