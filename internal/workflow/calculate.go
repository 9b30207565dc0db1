package workflow

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

const (
	wallAreaFactor = 2.5
	tileWallFactor = 3.0
	tileWaste      = 1.10
	bathroomShare  = 0.10
	kitchenShare   = 0.08
)

// Rates are the commercial parameters applied on top of the subtotal.
type Rates struct {
	ContingencyRate float64
	MarkupRate      float64
	Currency        string
}

// DefaultRates returns a 10% contingency, no markup, priced in EGP.
func DefaultRates() Rates {
	return Rates{ContingencyRate: 0.10, Currency: "EGP"}
}

// LineItem is one priced row of a quotation.
type LineItem struct {
	Category  string  `json:"category"`
	Material  string  `json:"material"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Quotation is the priced result of a session.
type Quotation struct {
	SessionID       string     `json:"session_id"`
	ProjectType     string     `json:"project_type"`
	AreaSqm         float64    `json:"area_sqm"`
	LineItems       []LineItem `json:"line_items"`
	Subtotal        float64    `json:"subtotal"`
	ContingencyRate float64    `json:"contingency_rate"`
	Contingency     float64    `json:"contingency"`
	MarkupRate      float64    `json:"markup_rate"`
	Markup          float64    `json:"markup"`
	GrandTotal      float64    `json:"grand_total"`
	CostPerSqm      float64    `json:"cost_per_sqm"`
	Currency        string     `json:"currency"`
	WorkScope       []string   `json:"work_scope"`
	Notes           []string   `json:"notes,omitempty"`
	Forced          bool       `json:"forced"`
	GeneratedAt     time.Time  `json:"generated_at"`
}

// Calculate prices the selected materials against the project areas. It is
// a pure function of st and rates and never mutates st.
func Calculate(st *State, rates Rates, at time.Time) (*Quotation, error) {
	if !st.CriticalDataComplete || !st.RequirementsComplete {
		return nil, fmt.Errorf("%w: calculation requires complete requirements and reference data", ErrPrecondition)
	}

	req := st.Requirements
	floor := floorArea(req)
	if floor <= 0 {
		return nil, fmt.Errorf("%w: project area unknown", ErrPrecondition)
	}

	total := req.Area()
	if total <= 0 {
		total = floor
	}

	q := &Quotation{
		SessionID:       st.SessionID,
		ProjectType:     req.ProjectType,
		AreaSqm:         total,
		ContingencyRate: rates.ContingencyRate,
		MarkupRate:      rates.MarkupRate,
		Currency:        rates.Currency,
		Forced:          st.Forced,
		GeneratedAt:     at,
	}

	for _, category := range allCategories {
		sel, ok := st.MaterialSelections[category]
		if !ok {
			continue
		}

		qty := quantity(category, sel, req, floor, total)
		item := LineItem{
			Category:  category,
			Material:  sel.Name,
			Quantity:  round2(qty),
			Unit:      sel.Unit,
			UnitPrice: sel.UnitPrice,
			Total:     round2(qty * sel.UnitPrice),
		}
		q.LineItems = append(q.LineItems, item)
		q.Subtotal += item.Total

		if q.Currency == "" {
			q.Currency = sel.Currency
		}
	}

	q.Subtotal = round2(q.Subtotal)
	q.Contingency = round2(q.Subtotal * rates.ContingencyRate)
	q.Markup = round2((q.Subtotal + q.Contingency) * rates.MarkupRate)
	q.GrandTotal = round2(q.Subtotal + q.Contingency + q.Markup)
	q.CostPerSqm = round2(q.GrandTotal / total)

	q.WorkScope = workScope(q.LineItems, floor)
	q.Notes = quotationNotes(st, q)
	return q, nil
}

func quantity(category string, sel Selection, req Requirements, floor, total float64) float64 {
	switch category {
	case CategoryFlooring:
		if areaUnit(sel.Unit) {
			return floor
		}
		return 1
	case CategoryWallPaint:
		return floor * wallAreaFactor
	case CategoryCeilingPaint:
		return floor
	case CategoryBathroomTiles:
		area := roomArea(req.Rooms, "bath", "restroom", "toilet")
		if area <= 0 {
			area = total * bathroomShare
		}
		return area * tileWallFactor * tileWaste
	case CategoryKitchenTiles:
		area := roomArea(req.Rooms, "kitchen")
		if area <= 0 {
			area = total * kitchenShare
		}
		return area * tileWallFactor * tileWaste
	case CategoryDoors:
		return float64(doorCount(req))
	}
	return 0
}

// floorArea is the sum of the room breakdown, falling back to the total area.
func floorArea(req Requirements) float64 {
	var sum float64
	for _, r := range req.Rooms {
		sum += r.AreaSqm * float64(max(r.Count, 1))
	}
	if sum > 0 {
		return sum
	}
	return req.Area()
}

func roomArea(rooms []Room, kinds ...string) float64 {
	var sum float64
	for _, r := range rooms {
		for _, k := range kinds {
			if strings.Contains(r.Type, k) {
				sum += r.AreaSqm * float64(max(r.Count, 1))
				break
			}
		}
	}
	return sum
}

// doorCount is one door per room. The room breakdown wins over the space
// counts of the project type.
func doorCount(req Requirements) int {
	n := 0
	for _, r := range req.Rooms {
		n += max(r.Count, 1)
	}
	if n == 0 {
		s := req.Spaces
		var counts []*int
		switch req.ProjectType {
		case ProjectResidential:
			counts = []*int{s.Bedrooms, s.Bathrooms, s.LivingRooms, s.Kitchens}
		case ProjectCommercial:
			counts = []*int{s.Shops, s.Offices, s.Restrooms}
		}
		for _, c := range counts {
			if c != nil {
				n += *c
			}
		}
	}
	return max(n, 1)
}

func areaUnit(unit string) bool {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "m²", "m2", "sqm", "sq m", "square meter", "square meters":
		return true
	}
	return false
}

var scopeLabels = map[string]string{
	CategoryFlooring:      "Floor finishing",
	CategoryWallPaint:     "Wall painting",
	CategoryCeilingPaint:  "Ceiling painting",
	CategoryBathroomTiles: "Bathroom wall tiling",
	CategoryKitchenTiles:  "Kitchen wall tiling",
	CategoryDoors:         "Door supply and installation",
}

func workScope(items []LineItem, floor float64) []string {
	scope := make([]string, 0, len(items)+1)
	for _, it := range items {
		scope = append(scope, fmt.Sprintf("%s: %s (%.2f %s)", scopeLabels[it.Category], it.Material, it.Quantity, it.Unit))
	}
	scope = append(scope, fmt.Sprintf("Covered floor area: %.2f m²", floor))
	return scope
}

func quotationNotes(st *State, q *Quotation) []string {
	var notes []string

	if st.Forced {
		notes = append(notes, "Estimate completed with default assumptions for details that were not provided.")
	}

	var missing []string
	for _, c := range neededCategories(st) {
		if _, ok := st.MaterialSelections[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		notes = append(notes, "Not priced (no catalogue match): "+strings.Join(missing, ", "))
	}

	if len(st.KnowledgeSnippets) > 0 {
		notes = append(notes, fmt.Sprintf("Checked against %d finishing standard and building code references.", len(st.KnowledgeSnippets)))
	}

	notes = append(notes, fmt.Sprintf("Includes a %.0f%% contingency.", q.ContingencyRate*100))
	if q.MarkupRate > 0 {
		notes = append(notes, fmt.Sprintf("Includes a %.0f%% markup.", q.MarkupRate*100))
	}
	notes = append(notes, "Prices are taken from the current catalogue and exclude labor unless listed.")
	return notes
}

// Summary renders the quotation as the final assistant message.
func Summary(q *Quotation, lang Language) string {
	var b strings.Builder

	b.WriteString(localize(lang, "## Cost Estimate\n\n", "## تقدير التكلفة\n\n"))
	fmt.Fprintf(&b, "%s: %.2f m²\n\n", localize(lang, "Area", "المساحة"), q.AreaSqm)

	b.WriteString(localize(lang,
		"| Item | Material | Quantity | Unit price | Total |\n",
		"| البند | الخامة | الكمية | سعر الوحدة | الإجمالي |\n",
	))
	b.WriteString("|---|---|---|---|---|\n")
	for _, it := range q.LineItems {
		fmt.Fprintf(&b, "| %s | %s | %.2f %s | %.2f | %.2f |\n",
			categoryLabel(it.Category, lang), it.Material, it.Quantity, it.Unit, it.UnitPrice, it.Total)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s: %.2f %s\n", localize(lang, "Subtotal", "الإجمالي الفرعي"), q.Subtotal, q.Currency)
	fmt.Fprintf(&b, "%s (%.0f%%): %.2f %s\n", localize(lang, "Contingency", "احتياطي"), q.ContingencyRate*100, q.Contingency, q.Currency)
	if q.Markup > 0 {
		fmt.Fprintf(&b, "%s (%.0f%%): %.2f %s\n", localize(lang, "Markup", "هامش"), q.MarkupRate*100, q.Markup, q.Currency)
	}
	fmt.Fprintf(&b, "**%s: %.2f %s**\n", localize(lang, "Grand total", "الإجمالي الكلي"), q.GrandTotal, q.Currency)
	fmt.Fprintf(&b, "%s: %.2f %s/m²\n", localize(lang, "Cost per m²", "تكلفة المتر"), q.CostPerSqm, q.Currency)

	if len(q.Notes) > 0 {
		b.WriteString("\n")
		for _, n := range q.Notes {
			b.WriteString("- " + n + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
