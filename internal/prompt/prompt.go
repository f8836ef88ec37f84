// Package prompt renders a user profile into the text sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/actuallystonmai/fitness-plan-service/internal/domain"
)

const header = "Create a personalized fitness and diet plan based on the following user information:"

const footer = `Please provide a detailed 7-day fitness and nutrition plan that includes:
1. Daily workout routines with sets and reps
2. Meal plans with portion sizes
3. Rest days
4. Hydration goals
5. Additional recommendations based on the user's data`

// Build renders p. Required fields are always present, optional ones
// get a line only when set, always in the same order.
func Build(p domain.UserProfile) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')

	line := func(format string, args ...any) {
		b.WriteString("- ")
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("Age: %s", p.Age)
	line("Biological Sex: %s", p.BiologicalSex)
	line("Height: %s cm", p.Height)
	line("Weight: %s kg", p.Weight)
	line("Fitness Experience: %s", p.FitnessExperience)
	line("Fitness Goals: %s", p.FitnessGoals)

	if p.DietaryRestrictions != nil {
		line("Dietary Restrictions: %s", *p.DietaryRestrictions)
	}
	if p.OxygenSaturation != nil {
		line("Oxygen Saturation: %s%%", *p.OxygenSaturation)
	}
	if p.BloodPressure != nil {
		line("Blood Pressure: %s", *p.BloodPressure)
	}
	if p.WaterIntake != nil {
		line("Daily Water Intake: %sL", *p.WaterIntake)
	}
	if p.CalorieIntake != nil {
		line("Daily Calorie Intake: %s kcal", *p.CalorieIntake)
	}

	b.WriteByte('\n')
	b.WriteString(footer)
	return b.String()
}
