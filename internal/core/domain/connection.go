package domain

import "time"

// ProviderConnection is the persisted OAuth credential pair linking one user
// to one accounting-provider realm. The refresh token is sealed at rest; the
// repository layer handles sealing, this struct always carries plaintext.
type ProviderConnection struct {
	UserID          string      `json:"userId"`
	RealmID         string      `json:"realmId"`
	AccessToken     string      `json:"-"`
	RefreshToken    string      `json:"-"`
	AccessExpiresAt time.Time   `json:"accessExpiresAt"`
	AuditFields     AuditFields `json:"audit"`
}

// AccessTokenValid reports whether the stored access token is still usable at
// the given instant, keeping the supplied safety margin before expiry.
func (c *ProviderConnection) AccessTokenValid(now time.Time, margin time.Duration) bool {
	if c.AccessToken == "" || c.AccessExpiresAt.IsZero() {
		return false
	}
	return now.Add(margin).Before(c.AccessExpiresAt)
}
