package workflow

import (
	"slices"
	"strings"
)

const (
	ProjectResidential = "residential"
	ProjectCommercial  = "commercial"
	ProjectFactory     = "factory"

	StatusBareConcrete = "bare_concrete"
	StatusPlastered    = "plastered"
	StatusSemiFinished = "semi_finished"
	StatusPainted      = "painted"

	LevelBasic    = "basic"
	LevelStandard = "standard"
	LevelPremium  = "premium"
	LevelLuxury   = "luxury"
)

var (
	projectTypes    = []string{ProjectResidential, ProjectCommercial, ProjectFactory}
	finishStatuses  = []string{StatusBareConcrete, StatusPlastered, StatusSemiFinished, StatusPainted}
	finishLevels    = []string{LevelBasic, LevelStandard, LevelPremium, LevelLuxury}
	finishStyles    = []string{"modern", "classic", "minimal", "luxury"}
	commercialTypes = []string{"retail", "office_building", "mixed_use"}
	factoryTypes    = []string{"light_manufacturing", "heavy_industrial", "warehouse"}
)

// Group is a requirements completeness group. Groups are checked in
// declaration order and the first missing one drives the next question.
type Group string

const (
	GroupNone        Group = ""
	GroupProjectType Group = "project_type"
	GroupBasics      Group = "basics"
	GroupSpaces      Group = "spaces"
)

// Room is one entry of a room breakdown.
type Room struct {
	Type    string  `json:"type"`
	AreaSqm float64 `json:"area_sqm"`
	Count   int     `json:"count"`
}

// Spaces holds the category-specific breakdown. A nil field is unknown;
// zero is a valid answer.
type Spaces struct {
	Bedrooms    *int `json:"bedrooms,omitempty"`
	Bathrooms   *int `json:"bathrooms,omitempty"`
	LivingRooms *int `json:"living_rooms,omitempty"`
	Kitchens    *int `json:"kitchens,omitempty"`

	Shops          *int   `json:"shops,omitempty"`
	Offices        *int   `json:"offices,omitempty"`
	Restrooms      *int   `json:"restrooms,omitempty"`
	CommercialType string `json:"commercial_type,omitempty"`

	ProductionAreaSqm *float64 `json:"production_area_sqm,omitempty"`
	WarehouseAreaSqm  *float64 `json:"warehouse_area_sqm,omitempty"`
	OfficeAreaSqm     *float64 `json:"office_area_sqm,omitempty"`
	FactoryType       string   `json:"factory_type,omitempty"`
}

// Requirements are the project attributes gathered from the user. Every
// field is optional until the completeness gate passes.
type Requirements struct {
	ProjectType    string   `json:"project_type,omitempty"`
	TotalAreaSqm   *float64 `json:"total_area_sqm,omitempty"`
	CurrentStatus  string   `json:"current_finishing_status,omitempty"`
	FinishingLevel string   `json:"finishing_level,omitempty"`
	Style          string   `json:"desired_finishing_style,omitempty"`
	Location       string   `json:"location,omitempty"`
	BudgetLimit    *float64 `json:"budget_limit,omitempty"`
	TimelineMonths *int     `json:"timeline_months,omitempty"`
	Spaces         Spaces   `json:"spaces"`
	Rooms          []Room   `json:"rooms,omitempty"`
}

// Merge returns r updated with every non-null field of next. Later values
// win; a room list is only replaced by a non-empty one.
func (r Requirements) Merge(next Requirements) Requirements {
	out := r
	out.Rooms = slices.Clone(r.Rooms)

	setString(&out.ProjectType, next.ProjectType)
	setPtr(&out.TotalAreaSqm, next.TotalAreaSqm)
	setString(&out.CurrentStatus, next.CurrentStatus)
	setString(&out.FinishingLevel, next.FinishingLevel)
	setString(&out.Style, next.Style)
	setString(&out.Location, next.Location)
	setPtr(&out.BudgetLimit, next.BudgetLimit)
	setPtr(&out.TimelineMonths, next.TimelineMonths)

	s, n := &out.Spaces, next.Spaces
	setPtr(&s.Bedrooms, n.Bedrooms)
	setPtr(&s.Bathrooms, n.Bathrooms)
	setPtr(&s.LivingRooms, n.LivingRooms)
	setPtr(&s.Kitchens, n.Kitchens)
	setPtr(&s.Shops, n.Shops)
	setPtr(&s.Offices, n.Offices)
	setPtr(&s.Restrooms, n.Restrooms)
	setString(&s.CommercialType, n.CommercialType)
	setPtr(&s.ProductionAreaSqm, n.ProductionAreaSqm)
	setPtr(&s.WarehouseAreaSqm, n.WarehouseAreaSqm)
	setPtr(&s.OfficeAreaSqm, n.OfficeAreaSqm)
	setString(&s.FactoryType, n.FactoryType)

	if len(next.Rooms) > 0 {
		out.Rooms = slices.Clone(next.Rooms)
	}
	return out
}

// Stated reports whether any field is set.
func (r Requirements) Stated() bool {
	sp := r.Spaces
	return r.ProjectType != "" || r.TotalAreaSqm != nil || r.CurrentStatus != "" ||
		r.FinishingLevel != "" || r.Style != "" || r.Location != "" ||
		r.BudgetLimit != nil || r.TimelineMonths != nil || len(r.Rooms) > 0 ||
		sp.Bedrooms != nil || sp.Bathrooms != nil || sp.LivingRooms != nil || sp.Kitchens != nil ||
		sp.Shops != nil || sp.Offices != nil || sp.Restrooms != nil || sp.CommercialType != "" ||
		sp.ProductionAreaSqm != nil || sp.WarehouseAreaSqm != nil || sp.OfficeAreaSqm != nil ||
		sp.FactoryType != ""
}

// Clone returns a copy that shares no pointers or slices with r.
func (r Requirements) Clone() Requirements {
	return Requirements{}.Merge(r)
}

// Normalize lowercases enumerated fields and drops values outside their
// allowed sets, along with non-positive areas and negative counts.
func (r Requirements) Normalize() Requirements {
	out := r
	out.ProjectType = enumValue(r.ProjectType, projectTypes)
	out.CurrentStatus = enumValue(r.CurrentStatus, finishStatuses)
	out.FinishingLevel = enumValue(r.FinishingLevel, finishLevels)
	out.Style = enumValue(r.Style, finishStyles)
	out.Location = strings.TrimSpace(r.Location)
	out.TotalAreaSqm = positive(r.TotalAreaSqm)
	out.BudgetLimit = positive(r.BudgetLimit)
	if r.TimelineMonths != nil && *r.TimelineMonths <= 0 {
		out.TimelineMonths = nil
	}

	s := &out.Spaces
	for _, p := range []**int{&s.Bedrooms, &s.Bathrooms, &s.LivingRooms, &s.Kitchens, &s.Shops, &s.Offices, &s.Restrooms} {
		if *p != nil && **p < 0 {
			*p = nil
		}
	}
	for _, p := range []**float64{&s.ProductionAreaSqm, &s.WarehouseAreaSqm, &s.OfficeAreaSqm} {
		if *p != nil && **p < 0 {
			*p = nil
		}
	}
	s.CommercialType = enumValue(r.Spaces.CommercialType, commercialTypes)
	s.FactoryType = enumValue(r.Spaces.FactoryType, factoryTypes)

	rooms := make([]Room, 0, len(r.Rooms))
	for _, room := range r.Rooms {
		if room.Type == "" || room.AreaSqm <= 0 {
			continue
		}
		if room.Count < 1 {
			room.Count = 1
		}
		room.Type = strings.ToLower(strings.TrimSpace(room.Type))
		rooms = append(rooms, room)
	}
	out.Rooms = rooms
	if len(rooms) == 0 {
		out.Rooms = nil
	}
	return out
}

// MissingGroup returns the first incomplete mandatory group, or GroupNone.
// Style is optional and never reported.
func (r Requirements) MissingGroup() Group {
	if !slices.Contains(projectTypes, r.ProjectType) {
		return GroupProjectType
	}
	if len(r.missingBasics()) > 0 {
		return GroupBasics
	}
	if len(r.missingSpaces()) > 0 {
		return GroupSpaces
	}
	return GroupNone
}

// Gaps lists the missing field names of the first incomplete group.
func (r Requirements) Gaps() []string {
	switch r.MissingGroup() {
	case GroupProjectType:
		return []string{"project_type"}
	case GroupBasics:
		return r.missingBasics()
	case GroupSpaces:
		return r.missingSpaces()
	}
	return nil
}

// HasMinimum reports whether the absolute minimum for a forced estimate is
// present: a valid project type and a positive total area.
func (r Requirements) HasMinimum() bool {
	return slices.Contains(projectTypes, r.ProjectType) &&
		r.TotalAreaSqm != nil && *r.TotalAreaSqm > 0
}

// Area returns the total area, or zero when unknown.
func (r Requirements) Area() float64 {
	if r.TotalAreaSqm == nil {
		return 0
	}
	return *r.TotalAreaSqm
}

func (r Requirements) missingBasics() []string {
	var missing []string
	if r.TotalAreaSqm == nil || *r.TotalAreaSqm <= 0 {
		missing = append(missing, "total_area_sqm")
	}
	if !slices.Contains(finishStatuses, r.CurrentStatus) {
		missing = append(missing, "current_finishing_status")
	}
	if !slices.Contains(finishLevels, r.FinishingLevel) {
		missing = append(missing, "finishing_level")
	}
	return missing
}

func (r Requirements) missingSpaces() []string {
	var missing []string
	s := r.Spaces
	check := func(present bool, name string) {
		if !present {
			missing = append(missing, name)
		}
	}

	switch r.ProjectType {
	case ProjectResidential:
		check(s.Bedrooms != nil, "bedrooms")
		check(s.Bathrooms != nil, "bathrooms")
		check(s.LivingRooms != nil, "living_rooms")
		check(s.Kitchens != nil, "kitchens")
	case ProjectCommercial:
		check(s.Shops != nil, "shops")
		check(s.Offices != nil, "offices")
		check(s.Restrooms != nil, "restrooms")
		check(slices.Contains(commercialTypes, s.CommercialType), "commercial_type")
	case ProjectFactory:
		check(s.ProductionAreaSqm != nil, "production_area_sqm")
		check(s.WarehouseAreaSqm != nil, "warehouse_area_sqm")
		check(s.OfficeAreaSqm != nil, "office_area_sqm")
		check(slices.Contains(factoryTypes, s.FactoryType), "factory_type")
	}
	return missing
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst **T, v *T) {
	if v != nil {
		c := *v
		*dst = &c
	}
}

func enumValue(v string, allowed []string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.ReplaceAll(v, " ", "_")
	v = strings.ReplaceAll(v, "-", "_")
	if slices.Contains(allowed, v) {
		return v
	}
	return ""
}

func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
