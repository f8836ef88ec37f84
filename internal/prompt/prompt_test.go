package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/actuallystonmai/fitness-plan-service/internal/domain"
)

func baseProfile() domain.UserProfile {
	return domain.UserProfile{
		Age:               30,
		BiologicalSex:     domain.SexMale,
		Height:            180,
		Weight:            80,
		FitnessExperience: "Beginner (0-6 months)",
		FitnessGoals:      "Weight Loss",
	}
}

func bulletLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.HasPrefix(l, "- ") {
			out = append(out, l)
		}
	}
	return out
}

func TestBuildRequiredOnly(t *testing.T) {
	got := Build(baseProfile())

	assert.Equal(t, []string{
		"- Age: 30",
		"- Biological Sex: male",
		"- Height: 180 cm",
		"- Weight: 80 kg",
		"- Fitness Experience: Beginner (0-6 months)",
		"- Fitness Goals: Weight Loss",
	}, bulletLines(got))
	assert.True(t, strings.HasSuffix(got, footer))
	assert.NotContains(t, got, "Dietary")
	assert.NotContains(t, got, "Oxygen")
}

func TestBuildOptionalFields(t *testing.T) {
	p := baseProfile()
	diet := "vegan"
	bp := "120/80"
	water := domain.Measure(2.5)
	kcal := domain.Measure(2200)
	oxygen := domain.Measure(97)
	p.DietaryRestrictions = &diet
	p.BloodPressure = &bp
	p.WaterIntake = &water
	p.CalorieIntake = &kcal
	p.OxygenSaturation = &oxygen

	lines := bulletLines(Build(p))

	assert.Len(t, lines, 11)
	assert.Equal(t, []string{
		"- Dietary Restrictions: vegan",
		"- Oxygen Saturation: 97%",
		"- Blood Pressure: 120/80",
		"- Daily Water Intake: 2.5L",
		"- Daily Calorie Intake: 2200 kcal",
	}, lines[6:])
}

func TestBuildIsDeterministic(t *testing.T) {
	p := baseProfile()
	water := domain.Measure(3)
	p.WaterIntake = &water

	assert.Equal(t, Build(p), Build(p))
}
