package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Gender selects the Mifflin-St Jeor constant.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ActivityLevel scales basal metabolic rate into a daily expenditure.
type ActivityLevel string

const (
	ActivityLow    ActivityLevel = "low"
	ActivityMedium ActivityLevel = "medium"
	ActivityHigh   ActivityLevel = "high"
)

// Goal describes whether the user wants a calorie deficit, surplus or neither.
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

// Profile captures the onboarding answers used to derive the daily goal.
type Profile struct {
	Name          string        `json:"name" bson:"name" validate:"required"`
	Age           int           `json:"age" bson:"age" validate:"min=15,max=120"`
	Weight        float64       `json:"weight" bson:"weight" validate:"min=30,max=300"`
	Height        float64       `json:"height" bson:"height" validate:"min=120,max=250"`
	Gender        Gender        `json:"gender" bson:"gender" validate:"oneof=male female"`
	ActivityLevel ActivityLevel `json:"activityLevel" bson:"activity_level" validate:"oneof=low medium high"`
	Goal          Goal          `json:"goal" bson:"goal" validate:"oneof=lose maintain gain"`
}

// ValidationError reports onboarding input problems keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

var profileValidator = validator.New()

// fieldMessages maps struct field + failed tag to the message shown next to the form field.
var fieldMessages = map[string]string{
	"Name.required":       "Name is required",
	"Age.min":             "Age must be at least 15",
	"Age.max":             "Age must be less than 120",
	"Weight.min":          "Weight must be at least 30kg",
	"Weight.max":          "Weight must be less than 300kg",
	"Height.min":          "Height must be at least 120cm",
	"Height.max":          "Height must be less than 250cm",
	"Gender.oneof":        "Gender must be male or female",
	"ActivityLevel.oneof": "Activity level must be low, medium or high",
	"Goal.oneof":          "Goal must be lose, maintain or gain",
}

var jsonNames = map[string]string{
	"Name":          "name",
	"Age":           "age",
	"Weight":        "weight",
	"Height":        "height",
	"Gender":        "gender",
	"ActivityLevel": "activityLevel",
	"Goal":          "goal",
}

// Validate checks every field and returns a *ValidationError listing all failures.
func (p Profile) Validate() error {
	err := profileValidator.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate profile: %w", err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		name := jsonNames[fe.StructField()]
		if _, seen := out.Fields[name]; seen {
			continue
		}
		msg, ok := fieldMessages[fe.StructField()+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", name)
		}
		out.Fields[name] = msg
	}
	return out
}
