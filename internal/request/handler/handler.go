package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/platform/middleware"
	"bloodlink/internal/request/models"
	"bloodlink/internal/request/service"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/httputil"
	"bloodlink/pkg/requestcontext"
)

// Service is the slice of the request workflow the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*models.BloodRequest, error)
	Get(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error)
	List(ctx context.Context, in service.ListInput) ([]*models.BloodRequest, error)
	Resolve(ctx context.Context, id domain.RequestID, in service.ResolveInput) (*models.BloodRequest, error)
}

// Handler exposes the blood request endpoints.
type Handler struct {
	svc       Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(svc Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{svc: svc, logger: logger, validator: validator}
}

// Register mounts the blood request routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/blood-requests", h.handleCreate)
		r.Get("/blood-requests", h.handleList)
		r.Get("/blood-requests/{id}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin, h.logger))
			r.Patch("/blood-requests/{id}/approve-reject", h.handleResolve)
		})
	})
}

type createRequest struct {
	BloodGroup    string `json:"blood_group"`
	UnitsRequired int    `json:"units_required"`
	Reason        string `json:"reason"`
	Urgency       string `json:"urgency"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.svc.Create(ctx, service.CreateInput{
		BloodGroup: req.BloodGroup,
		Units:      req.UnitsRequired,
		Reason:     req.Reason,
		Urgency:    req.Urgency,
	})
	if err != nil {
		h.logFailure(ctx, "failed to create blood request", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.svc.List(ctx, service.ListInput{
		Status:     r.URL.Query().Get("status"),
		BloodGroup: r.URL.Query().Get("blood_group"),
	})
	if err != nil {
		h.logFailure(ctx, "failed to list blood requests", err)
		httputil.WriteError(w, err)
		return
	}
	if out == nil {
		out = []*models.BloodRequest{}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return
	}

	req, err := h.svc.Get(ctx, id)
	if err != nil {
		h.logFailure(ctx, "failed to load blood request", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

type resolveRequest struct {
	Action      string `json:"action"`
	BloodBankID string `json:"blood_bank_id"`
	AdminNotes  string `json:"admin_notes"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	action, err := service.ParseAction(req.Action)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	in := service.ResolveInput{Action: action, AdminNotes: req.AdminNotes}
	if req.BloodBankID != "" {
		bankID, err := domain.ParseBankID(req.BloodBankID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid blood_bank_id"))
			return
		}
		in.BankID = &bankID
	}

	resolved, err := h.svc.Resolve(ctx, id, in)
	if err != nil {
		h.logFailure(ctx, "failed to resolve blood request", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolved)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
