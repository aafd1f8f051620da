package task

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/pkg/utilities"
)

// Handler exposes the task endpoints. All routes must sit behind auth.Guard.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// CreateRequest body for POST /api/tasks. Any owner field sent by the
// client is not part of the struct and therefore ignored.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// UpdateRequest body for PUT /api/tasks/{id}; absent fields stay unchanged.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	tasks, err := h.svc.List(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, "list tasks", id, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req CreateRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	t, err := h.svc.Create(r.Context(), id.UserID, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.fail(w, "create task", id, err)
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	p := entity.Patch{Title: req.Title, Description: req.Description}
	if req.Status != nil {
		st := entity.Status(*req.Status)
		p.Status = &st
	}
	t, err := h.svc.Update(r.Context(), id.UserID, r.PathValue("id"), p)
	if err != nil {
		h.fail(w, "update task", id, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		h.fail(w, "delete task", id, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, utilities.MessageResponse{Msg: "Task deleted successfully"})
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, auth.ErrNoToken.Error())
	}
	return id, ok
}

// fail maps service errors to responses. Store errors are logged and
// reported as an opaque 500.
func (h *Handler) fail(w http.ResponseWriter, op string, id auth.Identity, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		utilities.WriteError(w, http.StatusNotFound, "Task not found or unauthorized")
	default:
		h.logger.Errorw(op+" failed", "user_id", id.UserID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "server error")
	}
}
