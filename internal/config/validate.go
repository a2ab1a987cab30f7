package config

import "github.com/go-playground/validator/v10"

// validate is a single reusable validator instance, matching the usual
// go-playground/validator idiom of constructing one and caching it (struct
// tag parsing is not cheap to repeat per call).
var validate = validator.New()

// Validate runs the struct-tag validation rules (`validate:"required"`,
// `validate:"hostname_port"`, etc.) declared on cfg's fields.
//
// The teacher's own pkg/config.Load and its tests call a package-level
// Validate, but no such function is ever defined anywhere in that
// package — every validate tag in config.go is inert there. This fills
// that gap with a real implementation built on the same
// go-playground/validator/v10 dependency the teacher already imports.
func Validate(cfg any) error {
	return validate.Struct(cfg)
}
