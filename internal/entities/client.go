package entities

// Client is a tenant: the unit of data isolation. Clients are created at
// registration and never deleted.
type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

// ClientWithStats pairs a client with its lead score breakdown for the
// admin overview.
type ClientWithStats struct {
	Client
	LeadStats LeadStats `json:"leadStats"`
}
