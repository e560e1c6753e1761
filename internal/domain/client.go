package domain

import "time"

// Client represents a billable party. Invoices reference clients by ID but
// are not owned by them: deleting a client is a policy decision enforced at
// the service layer, never an implicit cascade.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"` // free text, may contain embedded newlines
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Category  string    `json:"category"` // e.g. "Corporate", "Personal"
	CreatedAt time.Time `json:"created_at"`
}
