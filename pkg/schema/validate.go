package schema

import (
	"slices"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// Schema is a map of parameter names to their expected types.
// Example: {"seed": Int(), "gma_lr": Float(), "lora_at_top": Bool()}
type Schema map[string]Type

// Validate checks that cfg binds every declared parameter to a value of the
// declared type. Parameters cfg binds but the schema does not mention are
// left alone. Failures are reported in parameter-name order.
func Validate(schema Schema, cfg domain.Configuration) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var errs []error
	for _, key := range keys {
		value, exists := cfg.Get(key)
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: "required",
			})
			continue
		}

		if err := schema[key].Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
