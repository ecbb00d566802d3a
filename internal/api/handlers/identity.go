package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/services"
)

// Caller identity arrives as headers set by the authentication layer in
// front of this service. The role defaults to driver when absent.
func callerFrom(r *http.Request) (services.Caller, error) {
	driverID := strings.TrimSpace(r.Header.Get("X-Driver-Id"))
	companyID := strings.TrimSpace(r.Header.Get("X-Company-Id"))
	if driverID == "" || companyID == "" {
		return services.Caller{}, errors.New("missing X-Driver-Id or X-Company-Id header")
	}

	role := services.RoleDriver
	switch strings.ToLower(strings.TrimSpace(r.Header.Get("X-Role"))) {
	case "super_admin", "superadmin":
		role = services.RoleSuperAdmin
	case "admin":
		role = services.RoleAdmin
	}

	return services.Caller{DriverID: driverID, CompanyID: companyID, Role: role}, nil
}
