package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// FieldError is a validation failure for one configuration field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var validate = validator.New()

func Validate(cfg *Config) error {
	var errs []FieldError

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed on %q rule", fe.Tag()),
			})
		}
	}

	errs = append(errs, validateStyles(cfg.Styles)...)
	errs = append(errs, validateStyleReferences(cfg)...)

	if cfg.Storage.Backend == "s3" && cfg.S3.Bucket == "" {
		errs = append(errs, FieldError{Field: "S3.Bucket", Message: "required for s3 storage backend"})
	}

	if cfg.Precache.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Precache.Schedule); err != nil {
			errs = append(errs, FieldError{Field: "Precache.Schedule", Message: err.Error()})
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateStyles(styles []Style) []FieldError {
	var errs []FieldError

	if len(styles) == 0 {
		return []FieldError{{Field: "Styles", Message: "at least one style is required"}}
	}

	seen := make(map[string]bool, len(styles))
	for i, s := range styles {
		field := fmt.Sprintf("Styles[%d]", i)

		switch {
		case s.Name == "":
			errs = append(errs, FieldError{Field: field + ".Name", Message: "is required"})
		case strings.ContainsAny(s.Name, "/?#. "):
			errs = append(errs, FieldError{Field: field + ".Name", Message: fmt.Sprintf("%q is not a valid path segment", s.Name)})
		case seen[s.Name]:
			errs = append(errs, FieldError{Field: field + ".Name", Message: fmt.Sprintf("duplicate style %q", s.Name)})
		}
		seen[s.Name] = true

		if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
			errs = append(errs, FieldError{Field: field + ".URL", Message: "must be an http(s) URL template"})
		}
		for _, p := range []string{PlaceholderZoom, PlaceholderX, PlaceholderY} {
			if !strings.Contains(s.URL, p) {
				errs = append(errs, FieldError{Field: field + ".URL", Message: fmt.Sprintf("missing %s placeholder", p)})
			}
		}
	}

	return errs
}

// validateStyleReferences rejects style names used elsewhere in the
// configuration that are not part of the routing table.
func validateStyleReferences(cfg *Config) []FieldError {
	var errs []FieldError
	names := cfg.StyleNames()

	for name := range cfg.Upstream.Tokens {
		if !slices.Contains(names, name) {
			errs = append(errs, FieldError{Field: "Upstream.Tokens", Message: fmt.Sprintf("unknown style %q", name)})
		}
	}

	for _, name := range cfg.Precache.ScheduleStyles {
		if !slices.Contains(names, name) {
			errs = append(errs, FieldError{Field: "Precache.ScheduleStyles", Message: fmt.Sprintf("unknown style %q", name)})
		}
	}

	return errs
}
