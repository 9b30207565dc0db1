// Package pricing serves the reference catalogue of material prices and
// labor day rates that every estimate is computed from.
package pricing

import (
	"time"

	"github.com/google/uuid"
)

// Material is one priced catalogue item.
type Material struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Unit      string    `json:"unit"`
	UnitPrice float64   `json:"unit_price"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LaborRate is the day rate of one labor role.
type LaborRate struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	DailyRate float64   `json:"daily_rate"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}
