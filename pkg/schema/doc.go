// Package schema provides optional type declarations for sweep parameters.
//
// A Schema maps parameter names to the primitive type every configuration
// must bind them to. It catches sweep definitions where, for example, a
// learning rate was written as a quoted string or an override key was
// misspelled, before any external program is started.
//
// Basic usage:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "seed":   "int",
//	    "gma_lr": "float",
//	})
//	if err != nil {
//	    // unknown type name
//	}
//
//	if err := schema.Validate(s, cfg); err != nil {
//	    // *schema.AggregateError listing every offending parameter
//	}
//
// Custom validators can be registered for domain-specific checks:
//
//	splitPoint := schema.Custom("split_point", func(v domain.Value) error {
//	    i, ok := v.AsInt()
//	    if !ok || i < 0 {
//	        return fmt.Errorf("expected a non-negative layer index")
//	    }
//	    return nil
//	})
package schema
