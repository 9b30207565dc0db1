package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/estimator/internal/llm"
	"github.com/JaimeStill/estimator/internal/prompts"
)

// RequirementsNode is a node of the requirements subgraph.
type RequirementsNode string

const (
	ReqExtract     RequirementsNode = "extract"
	ReqValidate    RequirementsNode = "validate"
	ReqComplete    RequirementsNode = "complete"
	ReqAskQuestion RequirementsNode = "ask_question"
)

const (
	guardExtracted  Guard = "extracted"
	guardComplete   Guard = "complete"
	guardIncomplete Guard = "incomplete"
	guardProceed    Guard = "proceed"
)

// RequirementsTable is extract -> validate -> {complete | ask_question}.
var RequirementsTable = NewTable[RequirementsNode]("requirements").
	On(ReqExtract, guardExtracted, ReqValidate).
	On(ReqValidate, guardComplete, ReqComplete).
	On(ReqValidate, guardProceed, ReqComplete).
	On(ReqValidate, guardIncomplete, ReqAskQuestion)

// RequirementsGuard is the validate decision: proceed wins, then the
// grouped completeness check.
func RequirementsGuard(st *State) Guard {
	if st.UserConfirmedProceed {
		return guardProceed
	}
	if st.Requirements.MissingGroup() == GroupNone {
		return guardComplete
	}
	return guardIncomplete
}

func (rt *Runtime) runRequirements(ctx context.Context, st *State) error {
	m := &machine[RequirementsNode]{
		table: RequirementsTable,
		steps: map[RequirementsNode]step{
			ReqExtract:  rt.extractStep,
			ReqValidate: func(_ context.Context, st *State) (Guard, error) { return RequirementsGuard(st), nil },
			ReqComplete: func(_ context.Context, st *State) (Guard, error) {
				st.RequirementsComplete = true
				st.Status = StatusRetrievingData
				if !st.UserConfirmedProceed {
					st.Say(requirementsConfirmation(st.Language), rt.now())
				}
				return "", nil
			},
			ReqAskQuestion: func(_ context.Context, st *State) (Guard, error) {
				group := st.Requirements.MissingGroup()
				st.Say(Question(group, st.Requirements.ProjectType, st.Language), rt.now())
				st.Awaiting = StageRequirements
				st.Status = StatusGatheringRequirements
				return "", nil
			},
		},
		terminal: terminals(ReqComplete, ReqAskQuestion),
		limit:    8,
	}

	_, err := m.run(ctx, st, ReqExtract)
	return err
}

func (rt *Runtime) extractStep(ctx context.Context, st *State) (Guard, error) {
	if !st.HasNewUserMessage() {
		return guardExtracted, nil
	}
	msg, _ := st.LatestUserMessage()

	found := rt.extractRequirements(ctx, st, msg)
	st.Requirements = st.Requirements.Merge(found)

	if WantsToProceed(msg, found.Stated()) {
		st.UserConfirmedProceed = true
		rt.Logger.InfoContext(ctx, "escape phrase detected", "session_id", st.SessionID)
	}

	st.ConsumeUserMessage()
	return guardExtracted, nil
}

// extractRequirements asks the model for the stated fields and supplements
// them with keyword matching; model values win over keyword values. Model
// failure falls back to keywords alone.
func (rt *Runtime) extractRequirements(ctx context.Context, st *State, msg string) Requirements {
	var found Requirements

	if rt.Model != nil {
		system := prompts.Compose(prompts.StageExtract, rt.instructions(ctx, prompts.StageExtract))

		extracted, err := llm.Extract[Requirements](ctx, rt.Model, system, extractionPrompt(st.Requirements, msg))
		if err != nil {
			rt.Logger.WarnContext(ctx, "model extraction failed, using keywords",
				"session_id", st.SessionID,
				"error", err,
			)
		} else {
			found = extracted.Normalize()
		}
	}

	return KeywordExtract(msg).Merge(found)
}

func extractionPrompt(current Requirements, msg string) string {
	known, err := json.Marshal(current)
	if err != nil {
		known = []byte("{}")
	}
	return fmt.Sprintf("Known requirements:\n%s\n\nLatest user message:\n%s", known, msg)
}
