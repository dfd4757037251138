package entities

// User is a tenant-scoped login. Email is the sole lookup key for
// authentication and is compared case-insensitively.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	ClientID     string `json:"clientId"`
	ClientName   string `json:"clientName,omitempty"`
}

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// Principal is an authenticated actor. The administrator is a distinct
// principal with a fixed id and no backing user record.
type Principal struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName,omitempty"`
	Role       string `json:"role"`
}

// SeesAllTenants reports whether the principal may read across tenant
// boundaries. Resolved once at the authorization boundary; repositories
// never branch on role.
func (p Principal) SeesAllTenants() bool {
	return p.Role == RoleAdmin
}
