package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/chargeroute/chargeroute/internal/api/models"
	"github.com/chargeroute/chargeroute/internal/api/response"
)

// CacheInvalidator clears one named in-process cache.
type CacheInvalidator interface {
	InvalidateCache()
}

// AdminHandler handles authenticated admin endpoints.
type AdminHandler struct {
	caches map[string]CacheInvalidator
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler over the given named caches.
func NewAdminHandler(caches map[string]CacheInvalidator, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{caches: caches, logger: logger}
}

// InvalidateCaches handles POST /v1/admin/cache/invalidate.
func (h *AdminHandler) InvalidateCaches(w http.ResponseWriter, r *http.Request) {
	invalidated := make([]string, 0, len(h.caches))
	for name, cache := range h.caches {
		cache.InvalidateCache()
		invalidated = append(invalidated, name)
	}
	sort.Strings(invalidated)

	h.logger.Info().
		Strs("caches", invalidated).
		Str("user", GetUserID(r.Context())).
		Msg("caches invalidated")

	response.JSON(w, r, http.StatusOK, models.CacheInvalidateResponse{
		Invalidated: invalidated,
		Time:        models.Timestamp(time.Now()),
	})
}
