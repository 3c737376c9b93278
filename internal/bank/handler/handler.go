package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/bank/models"
	"bloodlink/internal/bank/service"
	"bloodlink/internal/platform/middleware"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/httputil"
	"bloodlink/pkg/requestcontext"
)

// Service is the slice of bank management the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, in service.Input) (*models.BloodBank, error)
	Get(ctx context.Context, id domain.BankID) (*models.BloodBank, error)
	Update(ctx context.Context, id domain.BankID, in service.Input) (*models.BloodBank, error)
	Delete(ctx context.Context, id domain.BankID) error
	List(ctx context.Context, in service.ListInput) ([]*models.BloodBank, error)
}

// Handler exposes the blood bank management endpoints.
type Handler struct {
	svc       Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(svc Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{svc: svc, logger: logger, validator: validator}
}

// Register mounts the bank routes. All admin-only.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Use(middleware.RequireRole(domain.RoleAdmin, h.logger))
		r.Post("/blood-banks", h.handleCreate)
		r.Get("/blood-banks", h.handleList)
		r.Get("/blood-banks/{id}", h.handleGet)
		r.Put("/blood-banks/{id}", h.handleUpdate)
		r.Delete("/blood-banks/{id}", h.handleDelete)
	})
}

type bankRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	IsActive *bool  `json:"is_active"`
}

func (r bankRequest) input() service.Input {
	return service.Input{
		Name:     r.Name,
		Address:  r.Address,
		City:     r.City,
		State:    r.State,
		ZipCode:  r.ZipCode,
		Phone:    r.Phone,
		Email:    r.Email,
		IsActive: r.IsActive,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req bankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	b, err := h.svc.Create(ctx, req.input())
	if err != nil {
		h.logFailure(ctx, "failed to create blood bank", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in := service.ListInput{Search: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid is_active filter"))
			return
		}
		in.IsActive = &active
	}

	out, err := h.svc.List(ctx, in)
	if err != nil {
		h.logFailure(ctx, "failed to list blood banks", err)
		httputil.WriteError(w, err)
		return
	}
	if out == nil {
		out = []*models.BloodBank{}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseBankID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid bank id"))
		return
	}

	b, err := h.svc.Get(ctx, id)
	if err != nil {
		h.logFailure(ctx, "failed to load blood bank", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseBankID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid bank id"))
		return
	}

	var req bankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	b, err := h.svc.Update(ctx, id, req.input())
	if err != nil {
		h.logFailure(ctx, "failed to update blood bank", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseBankID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid bank id"))
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		h.logFailure(ctx, "failed to delete blood bank", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
