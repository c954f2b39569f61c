// Package validation checks gatherer factory arguments and engine
// configuration.
//
// Factories collect argument problems with a Validator and return the
// aggregated INVALID_ARGUMENT error. Configuration structs are checked
// through their struct tags.
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.NotNil("integrator", fn).Positive("size", n)
//	if err := v.Validate(); err != nil { ... }
//
// # Struct Tag Validation
//
//	type EngineConfig struct {
//	    Parallelism int `mapstructure:"parallelism" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
package validation
