package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/internal/service"
	apperrors "github.com/utafrali/storefront-search/pkg/errors"
	"github.com/utafrali/storefront-search/pkg/httputil"
	"github.com/utafrali/storefront-search/pkg/logger"
	"github.com/utafrali/storefront-search/pkg/validator"
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// TrackInteractionRequest is the JSON body of POST /interactions.
type TrackInteractionRequest struct {
	UserID    string `json:"user_id" validate:"required,max=128"`
	ProductID string `json:"product_id" validate:"required,max=128"`
	Type      string `json:"type" validate:"required,oneof=view click cart"`
}

// searchFailure is written when the catalog could not be queried, so clients
// reading the success flag still get a well-formed body.
type searchFailure struct {
	Success bool                    `json:"success"`
	Data    []domain.RankedProduct  `json:"data"`
	Error   *httputil.ErrorResponse `json:"error"`
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	opts, err := parseSearchOptions(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Search(r.Context(), opts)
	if err != nil {
		h.writeSearchFailure(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *SearchHandler) writeSearchFailure(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Status < http.StatusInternalServerError {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	logger.FromContext(r.Context()).ErrorContext(r.Context(), "search failed",
		slog.String("code", appErr.Code),
		slog.String("error", err.Error()),
	)
	httputil.WriteJSON(w, appErr.Status, searchFailure{
		Data: []domain.RankedProduct{},
		Error: &httputil.ErrorResponse{
			Code:      appErr.Code,
			Message:   appErr.Message,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}

// Autocomplete handles GET /api/v1/search/autocomplete
func (h *SearchHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	suggestions := h.service.Autocomplete(r.Context(), r.URL.Query().Get("q"), limit)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: suggestions})
}

// Trending handles GET /api/v1/search/trending
func (h *SearchHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	trending, err := h.service.Trending(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: trending})
}

// Recommendations handles GET /api/v1/search/recommendations
func (h *SearchHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	recs := h.service.Recommend(r.Context(), r.URL.Query().Get("q"), userID(r), limit)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: recs})
}

// TrackInteraction handles POST /api/v1/search/interactions
func (h *SearchHandler) TrackInteraction(w http.ResponseWriter, r *http.Request) {
	var req TrackInteractionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.service.TrackInteraction(r.Context(), req.UserID, req.ProductID, req.Type); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{
		Data: map[string]string{"status": "accepted"},
	})
}
