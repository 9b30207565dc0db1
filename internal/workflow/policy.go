package workflow

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Action is the kind of step the policy recommends.
type Action string

const (
	ActionCall    Action = "call"
	ActionAwait   Action = "await"
	ActionFinish  Action = "finish"
	ActionFail    Action = "fail"
	ActionTimeout Action = "timeout"
	ActionRespond Action = "respond"
)

// Plan is the policy's recommendation for the next router iteration.
type Plan struct {
	Action    Action
	Tool      string
	Arguments json.RawMessage
	Reason    string
	Allowed   []string
}

// NextAction evaluates the ordered supervisor policy against st. It is a
// pure function of its inputs.
func NextAction(st *State, opts Options, now time.Time) Plan {
	if st.CalculationComplete() {
		if !st.HasNewUserMessage() {
			return Plan{Action: ActionFinish, Reason: "quotation delivered"}
		}
		msg, _ := st.LatestUserMessage()
		if format, ok := ExportIntent(msg); ok {
			args, _ := json.Marshal(exportArgs{Format: format})
			return call(st, opts, ToolExportQuotation, "export requested").withArgs(args)
		}
		return Plan{Action: ActionRespond, Reason: "follow-up after quotation", Allowed: []string{ToolExportQuotation}}
	}

	if st.Status.Terminal() {
		return Plan{Action: ActionFinish, Reason: "terminal status " + string(st.Status)}
	}

	if opts.SessionTimeout > 0 && now.Sub(st.CreatedAt) > opts.SessionTimeout {
		return Plan{Action: ActionTimeout, Reason: "session timeout"}
	}

	if st.UserConfirmedProceed && !st.Forced {
		return force(st, opts, "user asked to proceed")
	}

	if !st.RequirementsComplete {
		if st.Attempts(StageRequirements) >= opts.MaxRequirementsAttempts {
			if st.Requirements.HasMinimum() {
				return force(st, opts, "requirements budget exhausted")
			}
			return Plan{Action: ActionFail, Reason: MinimumMissingError}
		}
		if !st.HasNewUserMessage() {
			return Plan{Action: ActionAwait, Reason: "awaiting requirements"}
		}
		return call(st, opts, ToolExtractRequirements, "requirements incomplete")
	}

	if !st.CriticalDataComplete {
		if st.Attempts(StageCriticalData) >= opts.MaxDataAttempts {
			return Plan{Action: ActionFail, Reason: fmt.Sprintf("CRITICAL: reference data unavailable after %d attempts", opts.MaxDataAttempts)}
		}
		return call(st, opts, ToolFetchReferenceData, "reference data missing")
	}

	if !st.KnowledgeComplete {
		return call(st, opts, ToolSearchKnowledge, "knowledge not gathered")
	}

	if !st.MaterialSelectionComplete {
		if st.Attempts(StageMaterialSelection) >= opts.MaxMaterialAttempts {
			return force(st, opts, "material selection budget exhausted")
		}
		if st.MaterialProgress.Pending != nil && !st.HasNewUserMessage() {
			return Plan{Action: ActionAwait, Reason: "awaiting material choice"}
		}
		return call(st, opts, ToolSelectMaterials, "materials incomplete")
	}

	if st.Attempts(StageCalculation) >= opts.MaxCalculationAttempts {
		return Plan{Action: ActionFail, Reason: fmt.Sprintf("CRITICAL: quotation calculation failed after %d attempts", opts.MaxCalculationAttempts)}
	}
	return call(st, opts, ToolCalculateQuotation, "ready to calculate")
}

// force recommends force_complete. Its retries share the reference data
// budget because only the inline catalogue fetch can fail recoverably.
func force(st *State, opts Options, reason string) Plan {
	if st.Attempts(StageForceComplete) >= opts.MaxDataAttempts {
		return Plan{Action: ActionFail, Reason: fmt.Sprintf("CRITICAL: reference data unavailable after %d attempts", opts.MaxDataAttempts)}
	}
	return Plan{Action: ActionCall, Tool: ToolForceComplete, Reason: reason}
}

func call(st *State, opts Options, tool, reason string) Plan {
	allowed := AllowedTools(st, opts)
	if !slices.Contains(allowed, tool) {
		allowed = append(allowed, tool)
	}
	return Plan{Action: ActionCall, Tool: tool, Reason: reason, Allowed: allowed}
}

func (p Plan) withArgs(args json.RawMessage) Plan {
	p.Arguments = args
	return p
}

// AllowedTools lists the model-facing tools whose preconditions hold, whose
// stage is incomplete, and whose attempt budget remains.
func AllowedTools(st *State, opts Options) []string {
	var allowed []string
	add := func(ok bool, tool string) {
		if ok {
			allowed = append(allowed, tool)
		}
	}

	add(!st.RequirementsComplete &&
		st.Attempts(StageRequirements) < opts.MaxRequirementsAttempts,
		ToolExtractRequirements)
	add(st.RequirementsComplete && !st.CriticalDataComplete &&
		st.Attempts(StageCriticalData) < opts.MaxDataAttempts,
		ToolFetchReferenceData)
	add(st.RequirementsComplete && !st.KnowledgeComplete,
		ToolSearchKnowledge)
	add(st.CriticalDataComplete && !st.MaterialSelectionComplete &&
		st.Attempts(StageMaterialSelection) < opts.MaxMaterialAttempts,
		ToolSelectMaterials)
	add(st.RequirementsComplete && st.CriticalDataComplete && st.MaterialSelectionComplete &&
		!st.CalculationComplete() &&
		st.Attempts(StageCalculation) < opts.MaxCalculationAttempts,
		ToolCalculateQuotation)
	add(st.CalculationComplete(), ToolExportQuotation)

	return allowed
}

var exportWords = []string{"export", "csv", "excel", "xlsx", "pdf", "download", "json", "تصدير", "تحميل", "نزل"}

// ExportIntent reports whether msg asks for the quotation as a file and
// which format to produce. JSON is chosen only when named; anything else
// gets CSV.
func ExportIntent(msg string) (format string, ok bool) {
	words := tokenize(msg)
	for _, w := range exportWords {
		if slices.Contains(words, w) {
			ok = true
			break
		}
	}
	if !ok {
		return "", false
	}
	if slices.Contains(words, "json") {
		return ExportJSON, true
	}
	return ExportCSV, true
}
