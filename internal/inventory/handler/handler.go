package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bloodlink/internal/inventory/models"
	"bloodlink/internal/platform/middleware"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/httputil"
	"bloodlink/pkg/requestcontext"
)

// Service is the slice of the ledger the HTTP layer needs.
type Service interface {
	List(ctx context.Context, filter models.Filter) ([]*models.Entry, error)
	Override(ctx context.Context, entryID uuid.UUID, units int) (*models.Entry, error)
}

// Handler exposes the inventory read view and the admin override endpoint.
type Handler struct {
	ledger    Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(ledger Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{ledger: ledger, logger: logger, validator: validator}
}

// Register mounts the inventory routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/blood-inventory", h.handleList)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin, h.logger))
			r.Patch("/blood-inventory/{id}", h.handleOverride)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter models.Filter
	if raw := r.URL.Query().Get("blood_bank"); raw != "" {
		bankID, err := domain.ParseBankID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid blood_bank filter"))
			return
		}
		filter.BankID = &bankID
	}
	if raw := r.URL.Query().Get("blood_group"); raw != "" {
		group, err := domain.ParseBloodGroup(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid blood_group filter"))
			return
		}
		filter.BloodGroup = &group
	}

	entries, err := h.ledger.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list inventory",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

type overrideRequest struct {
	UnitsAvailable *int `json:"units_available"`
}

func (h *Handler) handleOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid inventory entry id"))
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.UnitsAvailable == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "units_available is required"))
		return
	}

	entry, err := h.ledger.Override(ctx, entryID, *req.UnitsAvailable)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "failed to override inventory",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}
