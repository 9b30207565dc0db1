package workflow_test

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/estimator/internal/llm"
	"github.com/JaimeStill/estimator/internal/workflow"
)

func TestRouterFullConversation(t *testing.T) {
	k := goodKnowledge()
	rt := newRuntime(goodPricing(), k)
	r := workflow.NewRouter(rt)
	st := workflow.NewState("full", testNow)

	out := send(t, r, st, fullMessage)

	if out.Done {
		t.Fatal("first turn finished the session")
	}
	if out.Status != workflow.StatusSelectingMaterials {
		t.Errorf("status = %q, want selecting_materials", out.Status)
	}
	if !st.RequirementsComplete || !st.CriticalDataComplete || !st.KnowledgeComplete {
		t.Errorf("stages: req=%v data=%v knowledge=%v", st.RequirementsComplete, st.CriticalDataComplete, st.KnowledgeComplete)
	}
	if len(st.KnowledgeSnippets) != 2 {
		t.Errorf("snippets = %d, want 2 above the score floor", len(st.KnowledgeSnippets))
	}
	if len(k.queries) != 2 {
		t.Errorf("knowledge queries = %v", k.queries)
	}
	if !strings.Contains(out.Reply, "Great! I have everything I need") {
		t.Errorf("reply missing confirmation: %q", out.Reply)
	}
	if !strings.Contains(out.Reply, "Please choose the flooring") {
		t.Errorf("reply missing options: %q", out.Reply)
	}
	if st.Awaiting != workflow.StageMaterialSelection {
		t.Errorf("awaiting = %q", st.Awaiting)
	}

	for range 6 {
		out = send(t, r, st, "1")
	}

	if !out.Done || out.Status != workflow.StatusComplete {
		t.Fatalf("done=%v status=%q errors=%v", out.Done, out.Status, st.Errors)
	}
	if out.Quotation == nil || len(out.Quotation.LineItems) != 6 {
		t.Fatalf("quotation = %+v", out.Quotation)
	}
	if out.Quotation.Forced {
		t.Error("interactive quotation marked forced")
	}
	if !strings.Contains(out.Reply, "Cost Estimate") {
		t.Errorf("final reply missing summary: %q", out.Reply)
	}
	if st.TurnCount > rt.Options.MaxTurns {
		t.Errorf("turn count %d exceeds budget %d", st.TurnCount, rt.Options.MaxTurns)
	}
	if err := st.Validate(); err != nil {
		t.Errorf("final state invalid: %v", err)
	}
}

func TestRouterAsksOneQuestionAtATime(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("ask", testNow)

	out := send(t, r, st, "hello")
	if out.Done || st.Status != workflow.StatusGatheringRequirements {
		t.Fatalf("done=%v status=%q", out.Done, st.Status)
	}
	if !strings.Contains(out.Reply, "What type of project?") {
		t.Errorf("reply = %q", out.Reply)
	}

	out = send(t, r, st, "apartment")
	if !strings.Contains(out.Reply, "Total area in square meters?") {
		t.Errorf("reply = %q", out.Reply)
	}

	out = send(t, r, st, "120m2, plastered, premium")
	if !strings.Contains(out.Reply, "How many bedrooms?") {
		t.Errorf("reply = %q", out.Reply)
	}
	if st.RequirementsComplete {
		t.Error("requirements complete before spaces were given")
	}
}

func TestRouterCorrectionsOverwrite(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("correct", testNow)

	send(t, r, st, "100 m2 apartment")
	send(t, r, st, "sorry, it is actually 150 m2, plastered, premium")

	if got := st.Requirements.Area(); got != 150 {
		t.Errorf("area = %v, want 150", got)
	}
	if st.Requirements.CurrentStatus != workflow.StatusPlastered {
		t.Errorf("status = %q", st.Requirements.CurrentStatus)
	}

	send(t, r, st, "actually make it luxury")

	if st.Requirements.FinishingLevel != workflow.LevelLuxury {
		t.Errorf("level = %q, want luxury", st.Requirements.FinishingLevel)
	}
	if st.Requirements.Area() != 150 || st.Requirements.ProjectType != workflow.ProjectResidential {
		t.Errorf("unrelated fields changed: %+v", st.Requirements)
	}
}

func TestRouterAcknowledgementWithAnswerKeepsAsking(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("ack", testNow)

	send(t, r, st, "120 m2 apartment, plastered, standard")
	out := send(t, r, st, "ok, 3 bedrooms, 2 bathrooms")

	if st.UserConfirmedProceed || out.Done {
		t.Fatalf("answer treated as escape: done=%v status=%q", out.Done, out.Status)
	}
	if b := st.Requirements.Spaces.Bedrooms; b == nil || *b != 3 {
		t.Errorf("bedrooms = %v", b)
	}
	if !strings.Contains(out.Reply, "living rooms") {
		t.Errorf("reply = %q, want the next spaces question", out.Reply)
	}
}

func TestRouterArabicConversation(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("ar", testNow)

	out := send(t, r, st, "عايز اشطب")
	if st.Language != workflow.LanguageArabic {
		t.Errorf("language = %q", st.Language)
	}
	if !strings.Contains(out.Reply, "ما نوع المشروع؟") {
		t.Errorf("reply = %q", out.Reply)
	}
}

func TestRouterPaintedNeedsTilesOnly(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("painted", testNow)

	out := send(t, r, st, "100 m2 apartment, painted, standard, 2 bedrooms, 1 bathroom, 1 living room, 1 kitchen")

	want := []string{workflow.CategoryBathroomTiles, workflow.CategoryKitchenTiles}
	if !slices.Equal(st.MaterialProgress.Needed, want) {
		t.Errorf("needed = %v, want %v", st.MaterialProgress.Needed, want)
	}
	if !strings.Contains(out.Reply, "Please choose the bathroom tiles") {
		t.Errorf("reply = %q", out.Reply)
	}
}

func TestRouterInsufficientCatalogue(t *testing.T) {
	m, l := catalogue()
	k := goodKnowledge()
	r := workflow.NewRouter(newRuntime(&fakePricing{materials: m[:10], labor: l[:2]}, k))
	st := workflow.NewState("thin", testNow)

	out := send(t, r, st, fullMessage)

	if !out.Done || out.Status != workflow.StatusError {
		t.Fatalf("done=%v status=%q", out.Done, out.Status)
	}
	want := "CRITICAL: reference data validation failed - only 10 materials (minimum 30); only 2 labor roles (minimum 5)"
	if !slices.Contains(st.Errors, want) {
		t.Errorf("errors = %v", st.Errors)
	}
	if out.Quotation != nil || st.CriticalDataComplete {
		t.Error("failed session carries reference data or a quotation")
	}
	if len(k.queries) != 0 {
		t.Errorf("knowledge searched after critical failure: %v", k.queries)
	}
	if !strings.Contains(out.Reply, "can't prepare an estimate") {
		t.Errorf("reply = %q", out.Reply)
	}

	again := send(t, r, st, "please try")
	if again.Status != workflow.StatusError || st.TurnCount != 2 {
		t.Errorf("terminal session ran more tools: status=%q turns=%d", again.Status, st.TurnCount)
	}
	if !again.Done || !strings.Contains(again.Reply, "can't prepare an estimate") {
		t.Errorf("follow-up reply = %q, want the failure message", again.Reply)
	}
	if st.HasNewUserMessage() {
		t.Error("follow-up message left unconsumed")
	}
}

func TestRouterEscapePhraseForcesEstimate(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("escape", testNow)

	out := send(t, r, st, "150 m2 apartment, just proceed")

	if !out.Done || out.Status != workflow.StatusForcedCompletion {
		t.Fatalf("done=%v status=%q errors=%v", out.Done, out.Status, st.Errors)
	}
	if out.Quotation == nil || !out.Quotation.Forced {
		t.Fatalf("quotation = %+v", out.Quotation)
	}
	if st.Requirements.FinishingLevel != workflow.LevelStandard || st.Requirements.Location != "Cairo" {
		t.Errorf("defaults = %q %q", st.Requirements.FinishingLevel, st.Requirements.Location)
	}
	if len(st.Requirements.Rooms) != 5 {
		t.Errorf("rooms = %+v", st.Requirements.Rooms)
	}
	if out.Quotation.AreaSqm != 150 {
		t.Errorf("area = %v", out.Quotation.AreaSqm)
	}
}

func TestRouterEscapeWithoutMinimumFails(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("escape-empty", testNow)

	out := send(t, r, st, "just proceed")

	if !out.Done || out.Status != workflow.StatusError {
		t.Fatalf("done=%v status=%q", out.Done, out.Status)
	}
	if !slices.Contains(st.Errors, workflow.MinimumMissingError) {
		t.Errorf("errors = %v", st.Errors)
	}
}

func TestRouterEscapeDuringMaterials(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("escape-materials", testNow)

	send(t, r, st, fullMessage)
	send(t, r, st, "2")
	out := send(t, r, st, "skip")

	if !out.Done || out.Status != workflow.StatusForcedCompletion {
		t.Fatalf("done=%v status=%q errors=%v", out.Done, out.Status, st.Errors)
	}
	if sel := st.MaterialSelections[workflow.CategoryFlooring]; sel.Name != "Marble Flooring" || sel.Auto {
		t.Errorf("flooring = %+v, want the explicit choice", sel)
	}
	if sel := st.MaterialSelections[workflow.CategoryWallPaint]; !sel.Auto {
		t.Errorf("wall paint = %+v, want an automatic choice", sel)
	}
}

func TestRouterKnowledgeFailureIsNonFatal(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), &fakeKnowledge{err: errBoom}))
	st := workflow.NewState("kfail", testNow)

	out := send(t, r, st, fullMessage)

	if !st.KnowledgeComplete {
		t.Error("knowledge stage not completed")
	}
	if len(st.KnowledgeSnippets) != 0 {
		t.Errorf("snippets = %v", st.KnowledgeSnippets)
	}
	if !slices.Contains(st.Errors, "knowledge standards search failed: boom") {
		t.Errorf("errors = %v", st.Errors)
	}
	if out.Status != workflow.StatusSelectingMaterials {
		t.Errorf("status = %q", out.Status)
	}
}

func TestRouterTurnBudget(t *testing.T) {
	rt := newRuntime(goodPricing(), goodKnowledge())
	rt.Options.MaxTurns = 3
	r := workflow.NewRouter(rt)
	st := workflow.NewState("budget", testNow)

	out := send(t, r, st, fullMessage)

	if st.TurnCount != 3 {
		t.Errorf("turn count = %d, want 3", st.TurnCount)
	}
	if !out.Done || out.Status != workflow.StatusForcedCompletion {
		t.Fatalf("done=%v status=%q errors=%v", out.Done, out.Status, st.Errors)
	}
	if out.Quotation == nil {
		t.Fatal("no quotation after budget exhaustion")
	}
}

func TestRouterCheckpointResume(t *testing.T) {
	rt := newRuntime(goodPricing(), goodKnowledge())
	st := workflow.NewState("resume", testNow)
	send(t, workflow.NewRouter(rt), st, fullMessage)

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored workflow.State
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := restored.Validate(); err != nil {
		t.Fatalf("restored state invalid: %v", err)
	}
	if restored.MaterialProgress.Pending == nil || restored.MaterialProgress.Pending.Category != workflow.CategoryFlooring {
		t.Fatalf("pending = %+v", restored.MaterialProgress.Pending)
	}
	if restored.Conversation.Len() != st.Conversation.Len() || restored.TurnCount != st.TurnCount {
		t.Errorf("restored conversation=%d turns=%d", restored.Conversation.Len(), restored.TurnCount)
	}

	send(t, workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge())), &restored, "2")

	if got := restored.MaterialSelections[workflow.CategoryFlooring].Name; got != "Marble Flooring" {
		t.Errorf("flooring = %q", got)
	}
	if restored.MaterialProgress.Pending == nil || restored.MaterialProgress.Pending.Category != workflow.CategoryWallPaint {
		t.Errorf("pending = %+v", restored.MaterialProgress.Pending)
	}
}

func TestRouterEvents(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("events", testNow)
	st.AddUserMessage(fullMessage, testNow)

	var events []workflow.Event
	out, err := r.Run(context.Background(), st, func(e workflow.Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	var content, status int
	for _, e := range events {
		switch e.Type {
		case workflow.EventContent:
			content++
		case workflow.EventStatus:
			status++
		}
	}

	if content != 2 {
		t.Errorf("content events = %d, want 2", content)
	}
	if status != st.TurnCount {
		t.Errorf("status events = %d, want %d", status, st.TurnCount)
	}

	last := events[len(events)-1]
	if last.Type != workflow.EventDone {
		t.Fatalf("last event = %s, want done", last.Type)
	}
	if done, ok := last.Payload.(workflow.Outcome); !ok || done.Reply != out.Reply {
		t.Errorf("done payload = %+v", last.Payload)
	}
}

func TestRouterRecoversToolPanic(t *testing.T) {
	r := workflow.NewRouter(newRuntime(&fakePricing{panics: true}, goodKnowledge()))
	st := workflow.NewState("panic", testNow)

	out := send(t, r, st, fullMessage)

	if !out.Done || out.Status != workflow.StatusError {
		t.Fatalf("done=%v status=%q", out.Done, out.Status)
	}
	if st.Attempts(workflow.StageCriticalData) != 3 {
		t.Errorf("attempts = %d, want 3", st.Attempts(workflow.StageCriticalData))
	}

	panicked := false
	for _, e := range st.Errors {
		if strings.Contains(e, "panicked") {
			panicked = true
		}
	}
	if !panicked {
		t.Errorf("errors = %v", st.Errors)
	}
	if !slices.Contains(st.Errors, "CRITICAL: reference data unavailable after 3 attempts") {
		t.Errorf("errors = %v", st.Errors)
	}
}

func TestRouterTimeout(t *testing.T) {
	rt := newRuntime(goodPricing(), goodKnowledge())
	rt.Now = func() time.Time { return testNow.Add(31 * time.Minute) }
	r := workflow.NewRouter(rt)
	st := workflow.NewState("late", testNow)

	out := send(t, r, st, fullMessage)

	if !out.Done || out.Status != workflow.StatusTimeout {
		t.Fatalf("done=%v status=%q", out.Done, out.Status)
	}
	if st.TurnCount != 0 {
		t.Errorf("tools ran after timeout: %d", st.TurnCount)
	}

	again := send(t, r, st, "hello?")
	if again.Status != workflow.StatusTimeout || !strings.Contains(again.Reply, "session has expired") {
		t.Errorf("follow-up: status=%q reply=%q", again.Status, again.Reply)
	}
}

func TestRouterExport(t *testing.T) {
	exp := &fakeExporter{}
	rt := newRuntime(goodPricing(), goodKnowledge())
	rt.Exporter = exp
	r := workflow.NewRouter(rt)
	st := workflow.NewState("export", testNow)

	send(t, r, st, "150 m2 apartment, just proceed")
	out := send(t, r, st, "export as json")

	if !slices.Equal(exp.formats, []string{workflow.ExportJSON}) {
		t.Errorf("formats = %v", exp.formats)
	}
	if !strings.Contains(out.Reply, "exports/export/quotation.json") {
		t.Errorf("reply = %q", out.Reply)
	}

	out = send(t, r, st, "thanks")
	if !strings.Contains(out.Reply, "Your estimate is ready above") {
		t.Errorf("reply = %q", out.Reply)
	}
}

func TestRouterExportUnavailable(t *testing.T) {
	r := workflow.NewRouter(newRuntime(goodPricing(), goodKnowledge()))
	st := workflow.NewState("noexport", testNow)

	send(t, r, st, "150 m2 apartment, just proceed")
	out := send(t, r, st, "download csv")

	if !strings.Contains(out.Reply, "Exporting is not available") {
		t.Errorf("reply = %q", out.Reply)
	}
	if out.Status != workflow.StatusForcedCompletion {
		t.Errorf("status = %q, want unchanged", out.Status)
	}
}

func TestRouterModelSupervisor(t *testing.T) {
	t.Run("disallowed tool falls back to the policy", func(t *testing.T) {
		var toolRequests int
		rt := newRuntime(goodPricing(), goodKnowledge())
		rt.Model = modelFunc(func(_ context.Context, req llm.Request) (*llm.Response, error) {
			if len(req.Tools) == 0 {
				return &llm.Response{Text: "no json here"}, nil
			}
			toolRequests++
			return &llm.Response{ToolCall: &llm.ToolCall{Name: workflow.ToolCalculateQuotation}}, nil
		})
		r := workflow.NewRouter(rt)
		st := workflow.NewState("model", testNow)

		out := send(t, r, st, fullMessage)

		if toolRequests == 0 {
			t.Error("model never consulted")
		}
		if out.Status != workflow.StatusSelectingMaterials || st.Quotation != nil {
			t.Errorf("status=%q quotation=%v", out.Status, st.Quotation)
		}
	})

	t.Run("model picks an allowed tool", func(t *testing.T) {
		rt := newRuntime(goodPricing(), goodKnowledge())
		rt.Model = modelFunc(func(_ context.Context, req llm.Request) (*llm.Response, error) {
			if len(req.Tools) == 0 {
				return &llm.Response{Text: `{"project_type":"residential","total_area_sqm":100}`}, nil
			}
			return &llm.Response{ToolCall: &llm.ToolCall{Name: req.Tools[len(req.Tools)-1].Name}}, nil
		})
		r := workflow.NewRouter(rt)
		st := workflow.NewState("model-choice", testNow)

		send(t, r, st, "bare concrete, standard, 2 bedrooms, 1 bathroom, 1 living room, 1 kitchen")

		if st.Requirements.ProjectType != workflow.ProjectResidential || st.Requirements.Area() != 100 {
			t.Errorf("model extraction not merged: %+v", st.Requirements)
		}
		if !st.KnowledgeComplete {
			t.Error("knowledge not gathered")
		}
	})

	t.Run("model failure apologizes", func(t *testing.T) {
		rt := newRuntime(goodPricing(), goodKnowledge())
		rt.Model = modelFunc(func(context.Context, llm.Request) (*llm.Response, error) {
			return nil, errBoom
		})
		r := workflow.NewRouter(rt)
		st := workflow.NewState("model-down", testNow)

		out := send(t, r, st, fullMessage)

		if out.Done {
			t.Error("model failure ended the session")
		}
		if !strings.Contains(out.Reply, "something went wrong") {
			t.Errorf("reply = %q", out.Reply)
		}
		if !slices.Contains(st.Errors, "supervisor model unavailable: boom") {
			t.Errorf("errors = %v", st.Errors)
		}
		if st.TurnCount != 0 {
			t.Errorf("turns = %d, want 0", st.TurnCount)
		}
	})

	t.Run("text reply ends the turn", func(t *testing.T) {
		rt := newRuntime(goodPricing(), goodKnowledge())
		rt.Model = modelFunc(func(context.Context, llm.Request) (*llm.Response, error) {
			return &llm.Response{Text: "Hello! What are we building?"}, nil
		})
		r := workflow.NewRouter(rt)
		st := workflow.NewState("model-text", testNow)

		out := send(t, r, st, "hi")

		if out.Reply != "Hello! What are we building?" {
			t.Errorf("reply = %q", out.Reply)
		}
	})
}

func TestRegistry(t *testing.T) {
	reg := workflow.NewRegistry()

	if _, err := reg.Lookup("nope"); err == nil {
		t.Error("unknown tool resolved")
	}

	names := reg.Names()
	if len(names) != 7 || names[0] != workflow.ToolExtractRequirements {
		t.Errorf("names = %v", names)
	}

	schemas := reg.Schemas(names)
	for _, s := range schemas {
		if s.Name == workflow.ToolForceComplete {
			t.Error("internal tool exposed to the model")
		}
		if !json.Valid(s.Parameters) {
			t.Errorf("%s schema invalid", s.Name)
		}
	}
	if len(schemas) != 6 {
		t.Errorf("schemas = %d, want 6", len(schemas))
	}
}
