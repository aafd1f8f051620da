package user

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/pkg/utilities"
)

// Handler exposes HTTP endpoints for user operations (signup / login).
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// SignupRequest request body for signup endpoint.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		rejectWithMsg(w, "invalid payload")
		return
	}
	u, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password, req.Country)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			rejectWithMsg(w, err.Error())
		case errors.Is(err, ErrDuplicateEmail):
			rejectWithMsg(w, "Email is already registered")
		default:
			h.logger.Errorw("signup failed", "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "server error")
		}
		return
	}
	h.logger.Infow("user registered", "user_id", u.ID)
	utilities.WriteJSON(w, http.StatusCreated, utilities.MessageResponse{Msg: "User registered successfully"})
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		rejectWithMsg(w, "invalid payload")
		return
	}
	res, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.Debugw("login failed", "err", err)
			rejectWithMsg(w, "Invalid Credentials")
			return
		}
		h.logger.Errorw("login failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, res)
}

// ProtectedResponse is returned by the token check endpoint.
type ProtectedResponse struct {
	Msg  string         `json:"msg"`
	User entity.Summary `json:"user"`
}

// Protected echoes the caller's profile; it must sit behind auth.Guard.
func (h *Handler) Protected(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, auth.ErrNoToken.Error())
		return
	}
	sum, err := h.svc.Profile(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utilities.WriteError(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			return
		}
		h.logger.Errorw("load profile failed", "user_id", id.UserID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, ProtectedResponse{Msg: "This is protected data", User: *sum})
}

// rejectWithMsg answers 400 with the message under both "error" and "msg";
// the signup and login forms display "msg".
func rejectWithMsg(w http.ResponseWriter, msg string) {
	utilities.WriteJSON(w, http.StatusBadRequest, utilities.ErrorResponse{Error: msg, Msg: msg})
}
