// Package plans is the read model of the DocSafe subscription catalogue.
// Plans are owned by the main backend; this service only reads them to
// derive commission amounts and to render dashboards.
package plans

import "time"

// Plan is one subscription tier of DocSafe.
type Plan struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	PriceCentavos int64     `json:"price_centavos"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
