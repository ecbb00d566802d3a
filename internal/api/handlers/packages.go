package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/api/dto"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/services"
)

type PackageHandler struct {
	Grouper *services.Grouper
}

// Grouped turns a raw courier feed payload into the per-address grouped view.
func (h *PackageHandler) Grouped(w http.ResponseWriter, r *http.Request) {
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

	var req dto.GroupedPackagesRequest

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

	if len(req.Packages) == 0 {
		writeError(w, r, http.StatusBadRequest, "packages must be non-empty")
		return
	}

	grouped, err := h.Grouper.ProcessTour(r.Context(), caller.CompanyID, req.Packages)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "package grouping failed")
		return
	}

	writeJSON(w, r, http.StatusOK, grouped)
}
