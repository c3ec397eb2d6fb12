package record

import (
	"context"
	"time"
)

// Business is one validated contact record for a scrap-metal operator.
// Fields are free text and default to empty; Website always carries the
// candidate URL the record was extracted from. A record is never mutated
// after the collection loop accepts it.
type Business struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Website     string    `json:"website"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Description string    `json:"description"`
	Materials   string    `json:"materials"`
	Services    string    `json:"services"`
	CollectedAt time.Time `json:"collected_at"`
}

// Fields defines the canonical export column order.
var Fields = []string{
	"id",
	"name",
	"phone",
	"email",
	"website",
	"address",
	"city",
	"state",
	"country",
	"description",
	"materials",
	"services",
	"collected_at",
}

// HasContact reports whether the record carries at least one contact
// channel. Records without a phone or an email are never retained.
func (b *Business) HasContact() bool {
	return b.Phone != "" || b.Email != ""
}

// Row returns the record as a string slice in Fields order.
func (b *Business) Row() []string {
	return []string{
		b.ID,
		b.Name,
		b.Phone,
		b.Email,
		b.Website,
		b.Address,
		b.City,
		b.State,
		b.Country,
		b.Description,
		b.Materials,
		b.Services,
		b.CollectedAt.Format(time.RFC3339),
	}
}

// Sink receives the final record set for export or persistence.
type Sink interface {
	Write(ctx context.Context, b *Business) error
	Close() error
}
