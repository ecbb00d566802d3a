package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/api/dto"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/cache"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/services"
)

type AddressHandler struct {
	Addresses *cache.AddressCache
	Resolver  *services.Resolver
}

func toAddressResponse(a *domain.ResolvedAddress) *dto.AddressResponse {
	return &dto.AddressResponse{
		ID:               a.ID,
		OfficialLabel:    a.OfficialLabel,
		StreetName:       a.StreetName,
		StreetNumber:     a.StreetNumber,
		Postcode:         a.Postcode,
		City:             a.City,
		Longitude:        a.Coordinates.Lon,
		Latitude:         a.Coordinates.Lat,
		DoorCode:         a.DoorCode,
		HasMailboxAccess: a.HasMailboxAccess,
		DriverNotes:      a.DriverNotes,
	}
}

// Resolve runs one address through the cache layers and, when needed, the
// resolution cascade.
func (h *AddressHandler) Resolve(w http.ResponseWriter, r *http.Request) {
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

	var req dto.ResolveAddressRequest

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

	if strings.TrimSpace(req.Address) == "" {
		writeError(w, r, http.StatusBadRequest, "address is required")
		return
	}

	result, err := h.Addresses.FindOrResolve(r.Context(), req.Address, caller.CompanyID, caller.DriverID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "address resolution failed")
		return
	}

	resp := dto.ResolveAddressResponse{Found: result.Found, Source: string(result.Source)}
	if result.Address != nil {
		resp.Address = toAddressResponse(result.Address)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ResolveBatch runs the cascade over a list of raw addresses and returns the
// aggregate summary used for pre-shift validation.
func (h *AddressHandler) ResolveBatch(w http.ResponseWriter, r *http.Request) {
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

	var req dto.ResolveAddressBatchRequest

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

	if len(req.Addresses) == 0 {
		writeError(w, r, http.StatusBadRequest, "addresses must be non-empty")
		return
	}
	if len(req.Addresses) > 500 {
		writeError(w, r, http.StatusBadRequest, "addresses must contain at most 500 entries")
		return
	}

	batch, err := h.Resolver.ResolveBatch(r.Context(), req.Addresses, caller.DriverID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "batch resolution failed")
		return
	}
	writeJSON(w, r, http.StatusOK, batch)
}

// UpdateDriverData stores the driver's field knowledge (door code, mailbox
// access, notes) on an existing address.
func (h *AddressHandler) UpdateDriverData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", http.MethodPut)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return
	}

	var req dto.DriverDataRequest

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

	if strings.TrimSpace(req.AddressID) == "" {
		writeError(w, r, http.StatusBadRequest, "address_id is required")
		return
	}

	updated, err := h.Addresses.UpdateDriverData(r.Context(), req.AddressID,
		req.DoorCode, req.HasMailboxAccess, req.DriverNotes, caller.DriverID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "driver data update failed")
		return
	}

	writeJSON(w, r, http.StatusOK, toAddressResponse(updated))
}
