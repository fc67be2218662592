package journey

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks that a journey is structurally sound before it is pushed
// outward. A validation failure is a local data error: the journey fails fast
// for this sync pass and never reaches the remote API.
func (j Journey) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.ID, validation.Required),
		validation.Field(&j.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&j.Status, validation.Required, validation.In(statusValues()...)),
		validation.Field(&j.Version, validation.Min(1)),
		validation.Field(&j.Steps, validation.By(validateSteps)),
	)
}

// Validate checks a single step, including that its payload matches its kind.
func (s Step) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Kind, validation.Required, validation.In(stepKindValues()...)),
		validation.Field(&s.Delay, validation.Min(0)),
		validation.Field(&s.DelayUnit, validation.Required, validation.In(delayUnitValues()...)),
	)
}

// validateSteps enforces the ordering invariant: every step valid, and no two
// steps sharing an Order value.
func validateSteps(value interface{}) error {
	steps, ok := value.([]Step)
	if !ok {
		return fmt.Errorf("expected []Step, got %T", value)
	}

	seen := make(map[int]string, len(steps))
	for _, s := range steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %s: %w", s.ID, err)
		}
		if prev, dup := seen[s.Order]; dup {
			return fmt.Errorf("steps %s and %s share order %d", prev, s.ID, s.Order)
		}
		seen[s.Order] = s.ID
	}
	return nil
}

func statusValues() []interface{} {
	vals := make([]interface{}, len(ValidStatuses))
	for i, s := range ValidStatuses {
		vals[i] = s
	}
	return vals
}

func stepKindValues() []interface{} {
	vals := make([]interface{}, len(ValidStepKinds))
	for i, k := range ValidStepKinds {
		vals[i] = k
	}
	return vals
}

func delayUnitValues() []interface{} {
	vals := make([]interface{}, len(ValidDelayUnits))
	for i, u := range ValidDelayUnits {
		vals[i] = u
	}
	return vals
}
