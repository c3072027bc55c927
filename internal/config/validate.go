package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dusk-indust/spectrace/internal/paths"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags, glob syntax and that every configured
// pattern compiles with at least two capture groups.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describeValidation(err)
	}

	var errs []error
	seen := make(map[string]bool)
	for _, r := range c.Requirements {
		if seen["req:"+r.ID] {
			errs = append(errs, fmt.Errorf("requirements: duplicate source id %q", r.ID))
		}
		seen["req:"+r.ID] = true

		if !paths.ValidatePattern(r.Path) {
			errs = append(errs, fmt.Errorf("requirements[%s].path: invalid glob %q", r.ID, r.Path))
		}
		if err := checkPattern(r.IDPattern); err != nil {
			errs = append(errs, fmt.Errorf("requirements[%s].idPattern: %w", r.ID, err))
		}
		if err := checkPattern(r.LinkMarkerPattern); err != nil {
			errs = append(errs, fmt.Errorf("requirements[%s].linkMarkerPattern: %w", r.ID, err))
		}
	}
	for _, ts := range c.Tests {
		if seen["test:"+ts.ID] {
			errs = append(errs, fmt.Errorf("tests: duplicate source id %q", ts.ID))
		}
		seen["test:"+ts.ID] = true

		if ts.Path != "" && !paths.ValidatePattern(ts.Path) {
			errs = append(errs, fmt.Errorf("tests[%s].path: invalid glob %q", ts.ID, ts.Path))
		}
	}
	return errors.Join(errs...)
}

// checkPattern compiles an optional pattern and requires two capture groups
// (identifier/title or file/case name).
func checkPattern(p string) error {
	if p == "" {
		return nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return err
	}
	if re.NumSubexp() < 2 {
		return fmt.Errorf("pattern %q needs at least 2 capture groups, has %d", p, re.NumSubexp())
	}
	return nil
}

// describeValidation turns validator errors into field-level messages.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
