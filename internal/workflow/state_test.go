package workflow_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/JaimeStill/estimator/internal/workflow"
)

func TestConversation(t *testing.T) {
	var c workflow.Conversation
	c.Append(workflow.Message{Role: workflow.RoleUser, Content: "hello", At: testNow})
	c.Append(workflow.Message{Role: workflow.RoleAssistant, Content: "hi", At: testNow})
	c.Append(workflow.Message{Role: workflow.RoleAssistant, Content: "what project?", At: testNow})

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if got := c.LastUserIndex(); got != 0 {
		t.Errorf("LastUserIndex() = %d, want 0", got)
	}

	msgs := c.Messages()
	msgs[0].Content = "rewritten"
	if c.At(0).Content != "hello" {
		t.Error("Messages() exposed the underlying log")
	}

	if got := c.Since(1); len(got) != 2 || got[0].Content != "hi" {
		t.Errorf("Since(1) = %+v", got)
	}
	if got := c.Since(5); got != nil {
		t.Errorf("Since(5) = %+v, want nil", got)
	}

	last, ok := c.Last()
	if !ok || last.Content != "what project?" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestConversationJSON(t *testing.T) {
	var empty workflow.Conversation
	data, err := json.Marshal(empty)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty conversation = %s, want []", data)
	}

	var c workflow.Conversation
	c.Append(workflow.Message{Role: workflow.RoleUser, Content: "hello", At: testNow})
	data, err = json.Marshal(&c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded workflow.Conversation
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Len() != 1 || decoded.At(0).Content != "hello" {
		t.Errorf("decoded = %+v", decoded.Messages())
	}
}

func TestStateMessages(t *testing.T) {
	st := workflow.NewState("s1", testNow)

	if st.HasNewUserMessage() {
		t.Error("fresh state reports a new message")
	}

	st.AddUserMessage("شقة 100 متر", testNow)
	if !st.HasNewUserMessage() {
		t.Error("new message not reported")
	}
	if st.Language != workflow.LanguageArabic {
		t.Errorf("language = %q, want ar", st.Language)
	}

	st.ConsumeUserMessage()
	if st.HasNewUserMessage() {
		t.Error("consumed message still reported")
	}

	st.Say("reply", testNow)
	if st.HasNewUserMessage() {
		t.Error("assistant message reported as user input")
	}

	st.Awaiting = workflow.StageRequirements
	st.AddUserMessage("next", testNow)
	if st.Awaiting != "" {
		t.Errorf("awaiting = %q, want released", st.Awaiting)
	}
}

func TestStateAddError(t *testing.T) {
	st := workflow.NewState("s1", testNow)
	st.AddError("a")
	st.AddError("a")
	st.AddError("")
	st.AddError("b")

	if len(st.Errors) != 2 {
		t.Errorf("errors = %v, want [a b]", st.Errors)
	}
}

func TestStateSelect(t *testing.T) {
	st := workflow.NewState("s1", testNow)
	first := workflow.Selection{Material: material("Oak Laminate Flooring", "flooring", "m2", 400)}
	second := workflow.Selection{Material: material("Marble Flooring", "flooring", "m2", 1200)}

	if !st.Select(workflow.CategoryFlooring, first) {
		t.Fatal("first selection rejected")
	}
	if st.Select(workflow.CategoryFlooring, second) {
		t.Error("second selection replaced the first")
	}
	if got := st.MaterialSelections[workflow.CategoryFlooring].Name; got != "Oak Laminate Flooring" {
		t.Errorf("selection = %q", got)
	}
}

func TestStateClone(t *testing.T) {
	st := workflow.NewState("s1", testNow)
	st.AddUserMessage("hello", testNow)
	st.AddError("one")
	st.Select(workflow.CategoryDoors, workflow.Selection{Material: material("Solid Wood Door", "doors", "unit", 3000)})

	c := st.Clone()
	c.AddUserMessage("more", testNow)
	c.AddError("two")
	c.Select(workflow.CategoryFlooring, workflow.Selection{})

	if st.Conversation.Len() != 1 {
		t.Error("clone shares conversation")
	}
	if len(st.Errors) != 1 {
		t.Error("clone shares errors")
	}
	if len(st.MaterialSelections) != 1 {
		t.Error("clone shares selections")
	}
}

func TestStateCloneRequirements(t *testing.T) {
	st := workflow.NewState("s1", testNow)
	st.Requirements = workflow.Requirements{
		ProjectType:    workflow.ProjectResidential,
		TotalAreaSqm:   floatPtr(100),
		BudgetLimit:    floatPtr(500000),
		TimelineMonths: intPtr(6),
		Spaces:         workflow.Spaces{Bedrooms: intPtr(2), ProductionAreaSqm: floatPtr(50)},
		Rooms:          []workflow.Room{{Type: "bedroom", AreaSqm: 20, Count: 2}},
	}
	st.MaterialProgress.RoomGroups = map[string]workflow.RoomGroup{
		"bedroom": {TotalAreaSqm: 40, Count: 2, Rooms: []workflow.Room{{Type: "bedroom", AreaSqm: 20, Count: 2}}},
	}

	c := st.Clone()
	*c.Requirements.TotalAreaSqm = 999
	*c.Requirements.BudgetLimit = 1
	*c.Requirements.TimelineMonths = 1
	*c.Requirements.Spaces.Bedrooms = 9
	*c.Requirements.Spaces.ProductionAreaSqm = 1
	c.Requirements.Rooms[0].AreaSqm = 1
	c.MaterialProgress.RoomGroups["bedroom"].Rooms[0].AreaSqm = 1

	r := st.Requirements
	if r.Area() != 100 || *r.BudgetLimit != 500000 || *r.TimelineMonths != 6 {
		t.Errorf("clone shares basics: %+v", r)
	}
	if *r.Spaces.Bedrooms != 2 || *r.Spaces.ProductionAreaSqm != 50 {
		t.Errorf("clone shares spaces: %+v", r.Spaces)
	}
	if r.Rooms[0].AreaSqm != 20 {
		t.Error("clone shares rooms")
	}
	if st.MaterialProgress.RoomGroups["bedroom"].Rooms[0].AreaSqm != 20 {
		t.Error("clone shares room groups")
	}
}

func TestStateValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(st *workflow.State)
		valid  bool
	}{
		{"fresh", func(*workflow.State) {}, true},
		{"missing id", func(st *workflow.State) { st.SessionID = "" }, false},
		{"quotation without prerequisites", func(st *workflow.State) { st.Quotation = &workflow.Quotation{} }, false},
		{"duplicate errors", func(st *workflow.State) { st.Errors = []string{"x", "x"} }, false},
		{"negative turns", func(st *workflow.State) { st.TurnCount = -1 }, false},
		{"consumed beyond log", func(st *workflow.State) { st.ConsumedIndex = 3 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := workflow.NewState("s1", testNow)
			tt.mutate(st)
			err := st.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.valid && !errors.Is(err, workflow.ErrInvalidState) {
				t.Errorf("Validate() = %v, want ErrInvalidState", err)
			}
		})
	}
}
