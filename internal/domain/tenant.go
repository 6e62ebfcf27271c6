package domain

// Tenant is a hostname-scoped portal configuration. Records are provisioned
// out-of-band into the portal map; this service only reads them.
type Tenant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Branded     bool   `json:"branded"`
	Filter      string `json:"filter"`
	Sort        string `json:"sort"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}
