package dto

import (
	"time"

	"github.com/finlens/finlens_backend/internal/core/domain"
)

// ConnectionStatusResponse describes whether the caller has a linked
// accounting-provider realm.
type ConnectionStatusResponse struct {
	Connected   bool       `json:"connected"`
	RealmID     string     `json:"realmId,omitempty"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}

// ToConnectionStatusResponse converts a stored connection to the API shape.
func ToConnectionStatusResponse(conn *domain.ProviderConnection) ConnectionStatusResponse {
	response := ConnectionStatusResponse{
		Connected: true,
		RealmID:   conn.RealmID,
	}
	if !conn.AuditFields.CreatedAt.IsZero() {
		response.ConnectedAt = &conn.AuditFields.CreatedAt
	}
	return response
}

// AuthorizeURLResponse carries the provider consent URL to redirect to.
type AuthorizeURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// SyncRequest selects the year to sync snapshots for.
type SyncRequest struct {
	Year int `json:"year" binding:"required,min=2000,max=2100"`
}

// SyncResponse reports which months were synced.
type SyncResponse struct {
	SyncedMonths []string `json:"syncedMonths"`
}
