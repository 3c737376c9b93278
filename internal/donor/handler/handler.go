package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/donor/models"
	"bloodlink/internal/donor/service"
	"bloodlink/internal/platform/middleware"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/httputil"
	"bloodlink/pkg/requestcontext"
)

// Service is the slice of the donor directory the HTTP layer needs.
type Service interface {
	Profile(ctx context.Context) (*models.DonorProfile, error)
	Upsert(ctx context.Context, in service.UpsertInput) (*models.DonorProfile, error)
	Search(ctx context.Context, in service.SearchInput) ([]service.Match, error)
}

// Handler exposes donor search and profile self-service endpoints.
type Handler struct {
	svc       Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(svc Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{svc: svc, logger: logger, validator: validator}
}

// Register mounts the donor routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/search-donors", h.handleSearch)
		r.Get("/donor-profile", h.handleProfile)
		r.Put("/donor-profile", h.handleUpsert)
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in := service.SearchInput{
		BloodGroup: r.URL.Query().Get("blood_group"),
		City:       r.URL.Query().Get("city"),
	}
	if raw := r.URL.Query().Get("is_available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid is_available filter"))
			return
		}
		in.IsAvailable = &available
	}

	matches, err := h.svc.Search(ctx, in)
	if err != nil {
		h.logFailure(ctx, "failed to search donors", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.svc.Profile(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to load donor profile", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

type upsertRequest struct {
	BloodGroup  string `json:"blood_group"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
	IsAvailable bool   `json:"is_available"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	p, err := h.svc.Upsert(ctx, service.UpsertInput{
		BloodGroup:  req.BloodGroup,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		h.logFailure(ctx, "failed to save donor profile", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
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
