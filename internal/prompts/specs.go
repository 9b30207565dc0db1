package prompts

const supervisorSpec = `Respond with a single JSON object and nothing else.

To run a tool:
{"tool": "<tool name>", "arguments": {}}

To reply to the user without running a tool:
{"message": "<reply>"}

Constraints:
- tool must be one of the tools listed in this prompt
- arguments must match the tool's argument schema; use {} when it takes none
- never include prices or totals in message`

const extractSpec = `Respond with a JSON object matching this structure. Use null for anything not stated.

{
  "project_type": "residential | commercial | factory | null",
  "total_area_sqm": 0,
  "current_finishing_status": "bare_concrete | plastered | semi_finished | painted | null",
  "finishing_level": "basic | standard | premium | luxury | null",
  "desired_finishing_style": "modern | classic | minimal | luxury | null",
  "location": "<city> | null",
  "budget_limit": 0,
  "timeline_months": 0,
  "spaces": {
    "bedrooms": 0, "bathrooms": 0, "living_rooms": 0, "kitchens": 0,
    "shops": 0, "offices": 0, "restrooms": 0,
    "commercial_type": "retail | office_building | mixed_use | null",
    "production_area_sqm": 0, "warehouse_area_sqm": 0, "office_area_sqm": 0,
    "factory_type": "light_manufacturing | heavy_industrial | warehouse | null"
  },
  "rooms": [{"type": "<room type>", "area_sqm": 0, "count": 1}]
}

Constraints:
- Always respond with valid JSON, no markdown fencing
- Areas are square meters; budget is Egyptian pounds
- A stated zero count is 0, an unstated count is null`

var specs = map[Stage]string{
	StageSupervisor: supervisorSpec,
	StageExtract:    extractSpec,
}

// Spec returns the output contract for stage.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

// Compose joins instructions and the output contract for stage.
func Compose(stage Stage, instructions string) string {
	spec, err := Spec(stage)
	if err != nil {
		return instructions
	}
	return instructions + "\n\n" + spec
}
