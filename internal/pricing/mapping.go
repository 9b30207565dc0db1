package pricing

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/estimator/pkg/query"
	"github.com/JaimeStill/estimator/pkg/repository"
)

var materialProjection = query.
	NewProjectionMap("public", "materials", "m").
	Project("id", "ID").
	Project("name", "Name").
	Project("category", "Category").
	Project("unit", "Unit").
	Project("unit_price", "UnitPrice").
	Project("currency", "Currency").
	Project("updated_at", "UpdatedAt")

var laborProjection = query.
	NewProjectionMap("public", "labor_rates", "l").
	Project("id", "ID").
	Project("role", "Role").
	Project("daily_rate", "DailyRate").
	Project("currency", "Currency").
	Project("updated_at", "UpdatedAt")

var (
	materialSort = query.SortField{Field: "Name"}
	laborSort    = query.SortField{Field: "Role"}
)

// Filters narrows material queries. Category matches exactly; Name is a
// case-insensitive contains match; the price bounds are inclusive.
type Filters struct {
	Category *string  `json:"category,omitempty"`
	Name     *string  `json:"name,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Category", f.Category).
		WhereContains("Name", f.Name).
		WhereRange("UnitPrice", f.MinPrice, f.MaxPrice)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("category"); c != "" {
		f.Category = &c
	}
	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	if v, err := strconv.ParseFloat(values.Get("min_price"), 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(values.Get("max_price"), 64); err == nil {
		f.MaxPrice = &v
	}

	return f
}

func scanMaterial(s repository.Scanner) (Material, error) {
	var m Material
	err := s.Scan(
		&m.ID,
		&m.Name,
		&m.Category,
		&m.Unit,
		&m.UnitPrice,
		&m.Currency,
		&m.UpdatedAt,
	)
	return m, err
}

func scanLaborRate(s repository.Scanner) (LaborRate, error) {
	var l LaborRate
	err := s.Scan(
		&l.ID,
		&l.Role,
		&l.DailyRate,
		&l.Currency,
		&l.UpdatedAt,
	)
	return l, err
}
