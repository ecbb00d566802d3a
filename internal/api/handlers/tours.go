package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/api/dto"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/cache"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/services"
)

type TourHandler struct {
	Coordinator *services.Coordinator
	Tours       *cache.TourCache
	Addresses   *cache.AddressCache
}

// Sync applies one client sync round to the authoritative tour state.
func (h *TourHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return
	}

	var req dto.SyncTourRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if strings.TrimSpace(req.TourneeID) == "" {
		writeError(w, r, http.StatusBadRequest, "tournee_id is required")
		return
	}

	submitted := time.Now().UTC()
	if req.SubmittedAt != nil {
		submitted = *req.SubmittedAt
	}

	resp, err := h.Coordinator.Sync(r.Context(), caller, &domain.TourSyncRequest{
		TourneeID:    req.TourneeID,
		Version:      req.Version,
		Packages:     req.Packages,
		Optimization: req.Optimization,
		Checksum:     req.Checksum,
		SubmittedAt:  submitted,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			writeError(w, r, http.StatusForbidden, "not allowed to sync this tour")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "tour sync failed")
		return
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusConflict
	}
	writeJSON(w, r, status, resp)
}

// Tour serves reads and shift-end invalidation for one tour, identified by
// the tournee_id query parameter.
func (h *TourHandler) Tour(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return
	}

	tourneeID := strings.TrimSpace(r.URL.Query().Get("tournee_id"))
	if tourneeID == "" {
		writeError(w, r, http.StatusBadRequest, "tournee_id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := h.Coordinator.GetTour(r.Context(), caller, tourneeID)
		if err != nil {
			if errors.Is(err, domain.ErrPermissionDenied) {
				writeError(w, r, http.StatusForbidden, "not allowed to read this tour")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "tour lookup failed")
			return
		}
		if t == nil {
			writeError(w, r, http.StatusNotFound, "tour not found")
			return
		}
		writeJSON(w, r, http.StatusOK, t)

	case http.MethodDelete:
		if err := h.Coordinator.EndShift(r.Context(), caller, tourneeID); err != nil {
			if errors.Is(err, domain.ErrPermissionDenied) {
				writeError(w, r, http.StatusForbidden, "not allowed to end this tour")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "tour invalidation failed")
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "invalidated"})

	default:
		w.Header().Set("Allow", "GET, DELETE")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Stats reports cache occupancy and the active conflict strategy.
func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats := h.Tours.Stats()
	cfg := h.Tours.Config()

	writeJSON(w, r, http.StatusOK, dto.CacheStatsResponse{
		MemoryEntries:    stats.MemoryEntries,
		MaxEntries:       stats.MaxEntries,
		OldestTour:       stats.OldestTour,
		NewestTour:       stats.NewestTour,
		AddressEntries:   h.Addresses.Stats(),
		ConflictStrategy: string(h.Coordinator.Strategy()),
		MemoryTTLSeconds: int(cfg.MemoryTTL.Seconds()),
		RedisTTLSeconds:  int(cfg.DurableTTL.Seconds()),
	})
}
