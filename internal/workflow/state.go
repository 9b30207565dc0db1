package workflow

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/JaimeStill/estimator/internal/knowledge"
	"github.com/JaimeStill/estimator/internal/pricing"
)

// Stage names the component currently owning the workflow.
type Stage string

const (
	StageSupervisor        Stage = "supervisor"
	StageRequirements      Stage = "requirements"
	StageCriticalData      Stage = "critical_data"
	StageKnowledge         Stage = "knowledge"
	StageMaterialSelection Stage = "material_selection"
	StageCalculation       Stage = "calculation"
	StageForceComplete     Stage = "force_complete"
)

// Status is the externally visible workflow status.
type Status string

const (
	StatusPending               Status = "pending"
	StatusGatheringRequirements Status = "gathering_requirements"
	StatusRetrievingData        Status = "retrieving_data"
	StatusSelectingMaterials    Status = "selecting_materials"
	StatusCalculating           Status = "calculating"
	StatusComplete              Status = "complete"
	StatusForcedCompletion      Status = "forced_completion"
	StatusTimeout               Status = "timeout"
	StatusError                 Status = "error"
)

// Terminal reports whether no further stage may run.
func (s Status) Terminal() bool {
	return s == StatusError || s == StatusTimeout
}

// Selection is the catalogue item chosen for a material category.
type Selection struct {
	pricing.Material
	Auto bool `json:"auto,omitempty"`
}

// RoomGroup aggregates rooms of one type.
type RoomGroup struct {
	TotalAreaSqm float64 `json:"total_area_sqm"`
	Count        int     `json:"count"`
	Rooms        []Room  `json:"rooms"`
}

// Presentation is a set of options shown to the user for one category.
type Presentation struct {
	Category string             `json:"category"`
	Options  []pricing.Material `json:"options"`
}

// MaterialProgress tracks the material selection subgraph between turns.
type MaterialProgress struct {
	Needed     []string             `json:"needed,omitempty"`
	RoomGroups map[string]RoomGroup `json:"room_groups,omitempty"`
	Pending    *Presentation        `json:"pending,omitempty"`
	Skipped    []string             `json:"skipped,omitempty"`
}

// State is the checkpointed workflow record for one session.
type State struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Language  Language  `json:"language"`

	Conversation Conversation `json:"conversation"`

	CurrentStage Stage  `json:"current_stage"`
	Status       Status `json:"workflow_status"`

	Requirements         Requirements `json:"requirements"`
	RequirementsComplete bool         `json:"requirements_complete"`

	ReferenceMaterials   []pricing.Material  `json:"reference_materials,omitempty"`
	ReferenceLaborRates  []pricing.LaborRate `json:"reference_labor_rates,omitempty"`
	CriticalDataComplete bool                `json:"critical_data_complete"`

	KnowledgeSnippets []knowledge.Snippet `json:"knowledge_snippets,omitempty"`
	KnowledgeComplete bool                `json:"knowledge_complete"`

	MaterialSelections        map[string]Selection `json:"material_selections"`
	MaterialProgress          MaterialProgress     `json:"material_progress"`
	MaterialSelectionComplete bool                 `json:"material_selection_complete"`

	Quotation *Quotation `json:"quotation,omitempty"`

	TurnCount     int           `json:"turn_count"`
	StageAttempts map[Stage]int `json:"stage_attempts"`

	Errors     []string `json:"errors,omitempty"`
	Recovering bool     `json:"recovering"`

	UserConfirmedProceed bool  `json:"user_confirmed_proceed"`
	Forced               bool  `json:"forced"`
	ConsumedIndex        int   `json:"consumed_index"`
	Awaiting             Stage `json:"awaiting,omitempty"`
}

// NewState creates the initial record for a session.
func NewState(sessionID string, now time.Time) *State {
	return &State{
		SessionID:          sessionID,
		CreatedAt:          now,
		UpdatedAt:          now,
		Language:           LanguageEnglish,
		CurrentStage:       StageSupervisor,
		Status:             StatusPending,
		MaterialSelections: make(map[string]Selection),
		StageAttempts:      make(map[Stage]int),
		ConsumedIndex:      -1,
	}
}

// CalculationComplete is derived from the presence of a quotation.
func (s *State) CalculationComplete() bool {
	return s.Quotation != nil
}

// AddError appends msg unless it is already recorded.
func (s *State) AddError(msg string) {
	if msg == "" || slices.Contains(s.Errors, msg) {
		return
	}
	s.Errors = append(s.Errors, msg)
}

// Select records a choice for category. Existing selections are never
// replaced; the return value reports whether the choice was stored.
func (s *State) Select(category string, sel Selection) bool {
	if s.MaterialSelections == nil {
		s.MaterialSelections = make(map[string]Selection)
	}
	if _, ok := s.MaterialSelections[category]; ok {
		return false
	}
	s.MaterialSelections[category] = sel
	return true
}

// Attempts returns the attempt counter for stage.
func (s *State) Attempts(stage Stage) int {
	return s.StageAttempts[stage]
}

func (s *State) attempt(stage Stage) {
	if s.StageAttempts == nil {
		s.StageAttempts = make(map[Stage]int)
	}
	s.StageAttempts[stage]++
}

// HasNewUserMessage reports whether a user message arrived after the last
// one a stage consumed.
func (s *State) HasNewUserMessage() bool {
	return s.Conversation.LastUserIndex() > s.ConsumedIndex
}

// LatestUserMessage returns the content of the most recent user message.
func (s *State) LatestUserMessage() (string, bool) {
	i := s.Conversation.LastUserIndex()
	if i < 0 {
		return "", false
	}
	return s.Conversation.At(i).Content, true
}

// ConsumeUserMessage marks the latest user message as handled.
func (s *State) ConsumeUserMessage() {
	if i := s.Conversation.LastUserIndex(); i > s.ConsumedIndex {
		s.ConsumedIndex = i
	}
}

// AddUserMessage appends an inbound message and refreshes the detected
// language. Any pending suspension is released.
func (s *State) AddUserMessage(content string, at time.Time) {
	s.Conversation.Append(Message{Role: RoleUser, Content: content, At: at})
	s.Language = DetectLanguage(content)
	s.Awaiting = ""
	s.UpdatedAt = at
}

// Say appends an assistant message.
func (s *State) Say(content string, at time.Time) {
	s.Conversation.Append(Message{Role: RoleAssistant, Content: content, At: at})
	s.UpdatedAt = at
}

// Clone returns a deep copy suitable for comparison in tests and for
// snapshotting before a risky mutation.
func (s *State) Clone() *State {
	c := *s
	c.Conversation = Conversation{}
	for _, m := range s.Conversation.Messages() {
		c.Conversation.Append(m)
	}
	c.Requirements = s.Requirements.Clone()
	c.ReferenceMaterials = slices.Clone(s.ReferenceMaterials)
	c.ReferenceLaborRates = slices.Clone(s.ReferenceLaborRates)
	c.KnowledgeSnippets = slices.Clone(s.KnowledgeSnippets)
	c.MaterialSelections = maps.Clone(s.MaterialSelections)
	c.MaterialProgress.Needed = slices.Clone(s.MaterialProgress.Needed)
	c.MaterialProgress.Skipped = slices.Clone(s.MaterialProgress.Skipped)
	if s.MaterialProgress.RoomGroups != nil {
		c.MaterialProgress.RoomGroups = make(map[string]RoomGroup, len(s.MaterialProgress.RoomGroups))
		for k, g := range s.MaterialProgress.RoomGroups {
			g.Rooms = slices.Clone(g.Rooms)
			c.MaterialProgress.RoomGroups[k] = g
		}
	}
	if s.MaterialProgress.Pending != nil {
		p := *s.MaterialProgress.Pending
		p.Options = slices.Clone(p.Options)
		c.MaterialProgress.Pending = &p
	}
	c.StageAttempts = maps.Clone(s.StageAttempts)
	c.Errors = slices.Clone(s.Errors)
	if s.Quotation != nil {
		q := *s.Quotation
		q.LineItems = slices.Clone(q.LineItems)
		q.Notes = slices.Clone(q.Notes)
		q.WorkScope = slices.Clone(q.WorkScope)
		c.Quotation = &q
	}
	return &c
}

// Validate checks the structural invariants of a state record.
func (s *State) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("%w: session id required", ErrInvalidState)
	}
	if s.CalculationComplete() && !(s.CriticalDataComplete && s.RequirementsComplete) {
		return fmt.Errorf("%w: quotation present without complete requirements and reference data", ErrInvalidState)
	}
	seen := make(map[string]struct{}, len(s.Errors))
	for _, e := range s.Errors {
		if _, dup := seen[e]; dup {
			return fmt.Errorf("%w: duplicate error %q", ErrInvalidState, e)
		}
		seen[e] = struct{}{}
	}
	if s.TurnCount < 0 {
		return fmt.Errorf("%w: negative turn count", ErrInvalidState)
	}
	for stage, n := range s.StageAttempts {
		if n < 0 {
			return fmt.Errorf("%w: negative attempts for %s", ErrInvalidState, stage)
		}
	}
	if s.ConsumedIndex >= s.Conversation.Len() {
		return fmt.Errorf("%w: consumed index %d beyond conversation length %d", ErrInvalidState, s.ConsumedIndex, s.Conversation.Len())
	}
	return nil
}
