package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/estimator/internal/llm"
)

// Tool names.
const (
	ToolExtractRequirements = "extract_requirements"
	ToolFetchReferenceData  = "fetch_reference_data"
	ToolSearchKnowledge     = "search_knowledge"
	ToolSelectMaterials     = "select_materials"
	ToolCalculateQuotation  = "calculate_quotation"
	ToolExportQuotation     = "export_quotation"
	ToolForceComplete       = "force_complete"
)

// Export formats.
const (
	ExportCSV  = "csv"
	ExportJSON = "json"
)

// SideEffect classifies how a tool failure is treated.
type SideEffect string

const (
	SideEffectCritical    SideEffect = "critical"
	SideEffectNonCritical SideEffect = "non_critical"
	SideEffectReadOnly    SideEffect = "read_only"
)

// ToolHandler executes a tool against the session state.
type ToolHandler func(ctx context.Context, rt *Runtime, st *State, args json.RawMessage) error

// Tool is a registry entry.
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage
	SideEffect  SideEffect
	Stage       Stage
	Internal    bool
	Handler     ToolHandler
}

// Registry maps tool names to entries.
type Registry struct {
	tools map[string]Tool
	order []string
}

var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

type exportArgs struct {
	Format string `json:"format"`
}

// NewRegistry returns the registry of workflow tools.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]Tool)}

	r.register(Tool{
		Name:        ToolExtractRequirements,
		Description: "Read the latest user message, merge the project requirements it states, and ask the next missing question.",
		Schema:      emptySchema,
		SideEffect:  SideEffectNonCritical,
		Stage:       StageRequirements,
		Handler:     extractRequirementsTool,
	})
	r.register(Tool{
		Name:        ToolFetchReferenceData,
		Description: "Load the material and labor price catalogue and verify it covers an estimate.",
		Schema:      emptySchema,
		SideEffect:  SideEffectCritical,
		Stage:       StageCriticalData,
		Handler:     fetchReferenceDataTool,
	})
	r.register(Tool{
		Name:        ToolSearchKnowledge,
		Description: "Search Egyptian finishing standards and building codes relevant to the project.",
		Schema:      emptySchema,
		SideEffect:  SideEffectNonCritical,
		Stage:       StageKnowledge,
		Handler:     searchKnowledgeTool,
	})
	r.register(Tool{
		Name:        ToolSelectMaterials,
		Description: "Present material options for the next category or record the user's choice.",
		Schema:      emptySchema,
		SideEffect:  SideEffectNonCritical,
		Stage:       StageMaterialSelection,
		Handler:     selectMaterialsTool,
	})
	r.register(Tool{
		Name:        ToolCalculateQuotation,
		Description: "Price the selected materials and produce the quotation.",
		Schema:      emptySchema,
		SideEffect:  SideEffectCritical,
		Stage:       StageCalculation,
		Handler:     calculateQuotationTool,
	})
	r.register(Tool{
		Name:        ToolExportQuotation,
		Description: "Export the finished quotation as a downloadable file.",
		Schema:      json.RawMessage(`{"type":"object","properties":{"format":{"type":"string","enum":["csv","json"]}}}`),
		SideEffect:  SideEffectReadOnly,
		Stage:       StageCalculation,
		Handler:     exportQuotationTool,
	})
	r.register(Tool{
		Name:        ToolForceComplete,
		Description: "Complete the estimate with default assumptions.",
		Schema:      emptySchema,
		SideEffect:  SideEffectCritical,
		Stage:       StageForceComplete,
		Internal:    true,
		Handler:     forceCompleteTool,
	})

	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// Names returns every registered tool name in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Schemas returns model-facing definitions for the named tools. Internal
// and unknown tools are omitted.
func (r *Registry) Schemas(names []string) []llm.Tool {
	out := make([]llm.Tool, 0, len(names))
	for _, n := range names {
		t, ok := r.tools[n]
		if !ok || t.Internal {
			continue
		}
		out = append(out, llm.Tool{Name: t.Name, Description: t.Description, Parameters: t.Schema})
	}
	return out
}

func extractRequirementsTool(ctx context.Context, rt *Runtime, st *State, _ json.RawMessage) error {
	if st.RequirementsComplete {
		return fmt.Errorf("%w: requirements", ErrStageComplete)
	}
	return rt.runRequirements(ctx, st)
}

func fetchReferenceDataTool(ctx context.Context, rt *Runtime, st *State, _ json.RawMessage) error {
	if st.CriticalDataComplete {
		return fmt.Errorf("%w: critical data", ErrStageComplete)
	}
	if !st.RequirementsComplete {
		return fmt.Errorf("%w: reference data fetched before requirements", ErrPrecondition)
	}
	st.Status = StatusRetrievingData
	return rt.runCritical(ctx, st)
}

func searchKnowledgeTool(ctx context.Context, rt *Runtime, st *State, _ json.RawMessage) error {
	if st.KnowledgeComplete {
		return fmt.Errorf("%w: knowledge", ErrStageComplete)
	}
	if !st.RequirementsComplete {
		return fmt.Errorf("%w: knowledge searched before requirements", ErrPrecondition)
	}
	return rt.runKnowledge(ctx, st)
}

func selectMaterialsTool(ctx context.Context, rt *Runtime, st *State, _ json.RawMessage) error {
	if st.MaterialSelectionComplete {
		return fmt.Errorf("%w: material selection", ErrStageComplete)
	}
	if !st.CriticalDataComplete {
		return fmt.Errorf("%w: materials selected before reference data", ErrPrecondition)
	}
	return rt.runMaterials(ctx, st)
}

func calculateQuotationTool(ctx context.Context, rt *Runtime, st *State, _ json.RawMessage) error {
	if st.CalculationComplete() {
		return fmt.Errorf("%w: calculation", ErrStageComplete)
	}
	st.Status = StatusCalculating

	q, err := Calculate(st, rt.Options.Rates, rt.now())
	if err != nil {
		return err
	}

	st.Quotation = q
	st.Status = StatusComplete
	if st.Forced {
		st.Status = StatusForcedCompletion
	}
	st.Say(Summary(q, st.Language), rt.now())

	rt.Logger.InfoContext(ctx, "quotation calculated",
		"session_id", st.SessionID,
		"grand_total", q.GrandTotal,
		"currency", q.Currency,
		"forced", q.Forced,
	)
	return nil
}

func exportQuotationTool(ctx context.Context, rt *Runtime, st *State, raw json.RawMessage) error {
	st.ConsumeUserMessage()

	if !st.CalculationComplete() {
		return fmt.Errorf("%w: export before calculation", ErrPrecondition)
	}

	args := exportArgs{Format: ExportCSV}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
	}
	if args.Format == "" {
		args.Format = ExportCSV
	}
	if args.Format != ExportCSV && args.Format != ExportJSON {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidArguments, args.Format)
	}

	if rt.Exporter == nil {
		st.Say(localize(st.Language,
			"Exporting is not available right now.",
			"التصدير مش متاح دلوقتي.",
		), rt.now())
		return fmt.Errorf("%w: exporter", ErrUnavailable)
	}

	key, err := rt.Exporter.Export(ctx, st.SessionID, st.Quotation, args.Format)
	if err != nil {
		return fmt.Errorf("export quotation: %w", err)
	}

	st.Say(localize(st.Language,
		fmt.Sprintf("Your quotation has been exported as %s: %s", args.Format, key),
		fmt.Sprintf("تم تصدير التسعيرة بصيغة %s: %s", args.Format, key),
	), rt.now())
	return nil
}

func forceCompleteTool(ctx context.Context, rt *Runtime, st *State, _ json.RawMessage) error {
	return rt.ForceComplete(ctx, st)
}
