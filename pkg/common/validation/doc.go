// Package validation provides common validation utilities for configuration
// parameters across the allocmetrics module.
//
// Every validator returns a *errors.ValidationError carrying a hint, so that
// configuration loaders can report consistent messages without boilerplate.
package validation
