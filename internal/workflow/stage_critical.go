package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/estimator/internal/pricing"
)

// CriticalNode is a node of the critical-data subgraph.
type CriticalNode string

const (
	CritFetchMaterials   CriticalNode = "fetch_materials"
	CritFetchLaborRates  CriticalNode = "fetch_labor_rates"
	CritValidateCoverage CriticalNode = "validate_coverage"
	CritComplete         CriticalNode = "complete"
	CritFailed           CriticalNode = "failed"
)

const (
	guardFetched      Guard = "fetched"
	guardSufficient   Guard = "sufficient"
	guardInsufficient Guard = "insufficient"
)

// CriticalTable is fetch_materials -> fetch_labor_rates -> validate_coverage
// -> {complete | failed}.
var CriticalTable = NewTable[CriticalNode]("critical_data").
	On(CritFetchMaterials, guardFetched, CritFetchLaborRates).
	On(CritFetchLaborRates, guardFetched, CritValidateCoverage).
	On(CritValidateCoverage, guardSufficient, CritComplete).
	On(CritValidateCoverage, guardInsufficient, CritFailed)

// Coverage is the minimum reference data an estimate requires.
type Coverage struct {
	MinMaterials  int
	MinLaborRates int
}

// DefaultCoverage requires 30 materials and 5 labor roles.
func DefaultCoverage() Coverage {
	return Coverage{MinMaterials: 30, MinLaborRates: 5}
}

// CheckCoverage returns every way the catalogue falls short of cov. An
// empty result means the catalogue is sufficient.
func CheckCoverage(materials []pricing.Material, labor []pricing.LaborRate, cov Coverage) []string {
	var problems []string

	names := make(map[string]struct{}, len(materials))
	categories := make(map[string]struct{})
	badPrices := 0
	for _, m := range materials {
		names[strings.ToLower(strings.TrimSpace(m.Name))] = struct{}{}
		if c := strings.TrimSpace(m.Category); c != "" {
			categories[strings.ToLower(c)] = struct{}{}
		}
		if m.UnitPrice <= 0 {
			badPrices++
		}
	}

	roles := make(map[string]struct{}, len(labor))
	for _, l := range labor {
		roles[strings.ToLower(strings.TrimSpace(l.Role))] = struct{}{}
		if l.DailyRate <= 0 {
			badPrices++
		}
	}

	if len(names) < cov.MinMaterials {
		problems = append(problems, fmt.Sprintf("only %d materials (minimum %d)", len(names), cov.MinMaterials))
	}
	if len(roles) < cov.MinLaborRates {
		problems = append(problems, fmt.Sprintf("only %d labor roles (minimum %d)", len(roles), cov.MinLaborRates))
	}
	if badPrices > 0 {
		problems = append(problems, fmt.Sprintf("%d items with non-positive prices", badPrices))
	}
	if len(categories) == 0 {
		problems = append(problems, "no material categories")
	}
	return problems
}

func (rt *Runtime) runCritical(ctx context.Context, st *State) error {
	if rt.Pricing == nil {
		return fmt.Errorf("%w: pricing store", ErrUnavailable)
	}

	var (
		materials []pricing.Material
		labor     []pricing.LaborRate
		problems  []string
	)

	m := &machine[CriticalNode]{
		table: CriticalTable,
		steps: map[CriticalNode]step{
			CritFetchMaterials: func(ctx context.Context, _ *State) (Guard, error) {
				var err error
				if materials, err = rt.Pricing.ListMaterials(ctx); err != nil {
					return "", fmt.Errorf("fetch materials: %w", err)
				}
				return guardFetched, nil
			},
			CritFetchLaborRates: func(ctx context.Context, _ *State) (Guard, error) {
				var err error
				if labor, err = rt.Pricing.ListLaborRates(ctx); err != nil {
					return "", fmt.Errorf("fetch labor rates: %w", err)
				}
				return guardFetched, nil
			},
			CritValidateCoverage: func(ctx context.Context, st *State) (Guard, error) {
				problems = CheckCoverage(materials, labor, rt.Options.Coverage)
				if len(problems) > 0 {
					return guardInsufficient, nil
				}
				return guardSufficient, nil
			},
			CritComplete: func(ctx context.Context, st *State) (Guard, error) {
				st.ReferenceMaterials = materials
				st.ReferenceLaborRates = labor
				st.CriticalDataComplete = true
				rt.Logger.InfoContext(ctx, "reference data loaded",
					"session_id", st.SessionID,
					"materials", len(materials),
					"labor_rates", len(labor),
				)
				return "", nil
			},
			CritFailed: func(ctx context.Context, st *State) (Guard, error) {
				st.Status = StatusError
				st.AddError("CRITICAL: reference data validation failed - " + strings.Join(problems, "; "))
				st.Say(criticalFailureMessage(st.Language), rt.now())
				rt.Logger.ErrorContext(ctx, "reference data insufficient",
					"session_id", st.SessionID,
					"problems", problems,
				)
				return "", nil
			},
		},
		terminal: terminals(CritComplete, CritFailed),
		limit:    8,
	}

	_, err := m.run(ctx, st, CritFetchMaterials)
	return err
}
