package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type BiologicalSex string

const (
	SexMale   BiologicalSex = "male"
	SexFemale BiologicalSex = "female"
	SexOther  BiologicalSex = "other"
)

// Measure is a numeric form value. Browsers post numbers as either JSON
// numbers or numeric strings, both are accepted.
type Measure float64

func (m *Measure) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*m = Measure(f)
	return nil
}

// String renders the shortest exact form: 30, 1.5, 72.25.
func (m Measure) String() string {
	return strconv.FormatFloat(float64(m), 'f', -1, 64)
}

type UserProfile struct {
	Age               Measure       `json:"age"`
	BiologicalSex     BiologicalSex `json:"biologicalSex"`
	Height            Measure       `json:"height"`
	Weight            Measure       `json:"weight"`
	FitnessExperience string        `json:"fitnessExperience"`
	FitnessGoals      string        `json:"fitnessGoals"`

	DietaryRestrictions *string  `json:"dietaryRestrictions,omitempty"`
	OxygenSaturation    *Measure `json:"oxygenSaturation,omitempty"`
	BloodPressure       *string  `json:"bloodPressure,omitempty"`
	WaterIntake         *Measure `json:"waterIntake,omitempty"`
	CalorieIntake       *Measure `json:"calorieIntake,omitempty"`
}

// RequiredFields in the order they are reported and rendered.
var RequiredFields = []string{
	"age",
	"biologicalSex",
	"height",
	"weight",
	"fitnessExperience",
	"fitnessGoals",
}

// DecodeProfile parses a request body into a profile. Keys that are
// null or the empty string count as absent. Missing required keys are
// reported together as a *MissingFieldsError; anything unparseable
// wraps ErrInvalidBody.
func DecodeProfile(body []byte) (UserProfile, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		if err == nil {
			err = fmt.Errorf("expected a JSON object")
		}
		return UserProfile{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	for k, v := range raw {
		if isBlank(v) {
			delete(raw, k)
		}
	}

	var missing []string
	for _, k := range RequiredFields {
		if _, ok := raw[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return UserProfile{}, &MissingFieldsError{Fields: missing}
	}

	cleaned, err := json.Marshal(raw)
	if err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	var p UserProfile
	if err := json.Unmarshal(cleaned, &p); err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return p, nil
}

func isBlank(v json.RawMessage) bool {
	s := string(bytes.TrimSpace(v))
	return s == "null" || s == `""`
}

var bloodPressurePattern = regexp.MustCompile(`^\d{1,3}/\d{1,3}$`)

type bound struct{ min, max Measure }

var (
	ageRange    = bound{13, 120}
	heightRange = bound{100, 250}
	weightRange = bound{30, 300}
	oxygenRange = bound{80, 100}
	waterRange  = bound{0.5, 10}
	kcalRange   = bound{500, 10000}
)

// Validate applies the form's field rules. The HTTP handler leaves this
// to the form; the CLI uses it.
func (p UserProfile) Validate() error {
	var problems []string
	check := func(name string, v Measure, b bound) {
		if v < b.min || v > b.max {
			problems = append(problems, fmt.Sprintf("%s must be between %s and %s", name, b.min, b.max))
		}
	}

	check("age", p.Age, ageRange)
	check("height", p.Height, heightRange)
	check("weight", p.Weight, weightRange)

	switch p.BiologicalSex {
	case SexMale, SexFemale, SexOther:
	default:
		problems = append(problems, fmt.Sprintf("biologicalSex %q is not one of male, female, other", p.BiologicalSex))
	}
	if strings.TrimSpace(p.FitnessExperience) == "" {
		problems = append(problems, "fitnessExperience is required")
	}
	if strings.TrimSpace(p.FitnessGoals) == "" {
		problems = append(problems, "fitnessGoals is required")
	}

	if p.OxygenSaturation != nil {
		check("oxygenSaturation", *p.OxygenSaturation, oxygenRange)
	}
	if p.WaterIntake != nil {
		check("waterIntake", *p.WaterIntake, waterRange)
	}
	if p.CalorieIntake != nil {
		check("calorieIntake", *p.CalorieIntake, kcalRange)
	}
	if p.BloodPressure != nil && !bloodPressurePattern.MatchString(*p.BloodPressure) {
		problems = append(problems, fmt.Sprintf("bloodPressure %q must look like 120/80", *p.BloodPressure))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
