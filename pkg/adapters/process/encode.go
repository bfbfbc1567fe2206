package process

import (
	"fmt"
	"math"
	"regexp"
	"unicode/utf8"

	"github.com/aretw0/sflsweep/pkg/domain"
)

var flagName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Encode renders v the way the external program's argument parser expects
// it: True/False for booleans, base-10 integers, the shortest round-trip
// decimal for floats and strings verbatim.
//
// Values are passed as argv elements and never through a shell, so the only
// strings rejected are those no argv element can carry faithfully: control
// characters and invalid UTF-8. Non-finite floats are rejected too.
func Encode(v domain.Value) (string, error) {
	switch v.Kind() {
	case domain.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", &domain.ConfigurationError{Reason: "non-finite float cannot be encoded", Value: f}
		}
	case domain.KindString:
		s, _ := v.AsString()
		if !utf8.ValidString(s) {
			return "", &domain.ConfigurationError{Reason: "string is not valid UTF-8", Value: s}
		}
		for i, r := range s {
			if r < 0x20 || r == 0x7f {
				return "", &domain.ConfigurationError{
					Reason: fmt.Sprintf("control character %U at byte %d", r, i),
					Value:  s,
				}
			}
		}
	case domain.KindInvalid:
		return "", &domain.ConfigurationError{Reason: "value is unset"}
	}
	return v.Text(), nil
}

// Flags encodes cfg as named command-line flags, one per key in
// configuration order.
func Flags(cfg domain.Configuration, style domain.FlagStyle) ([]string, error) {
	if style == "" {
		style = domain.FlagStyleEquals
	}
	if style != domain.FlagStyleEquals && style != domain.FlagStyleSeparate {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("unknown flag style %q", style)}
	}

	args := make([]string, 0, cfg.Len()*2)
	for name, v := range cfg.All() {
		if !flagName.MatchString(name) {
			return nil, &domain.ConfigurationError{Param: name, Reason: "not a valid flag name"}
		}
		text, err := Encode(v)
		if err != nil {
			if ce, ok := err.(*domain.ConfigurationError); ok {
				ce.Param = name
			}
			return nil, err
		}

		switch style {
		case domain.FlagStyleSeparate:
			// A separate string value starting with '-' would be read as
			// the next flag.
			if v.Kind() == domain.KindString && len(text) > 0 && text[0] == '-' {
				return nil, &domain.ConfigurationError{
					Param:  name,
					Reason: "string starting with '-' needs the equals flag style",
					Value:  text,
				}
			}
			args = append(args, "--"+name, text)
		default:
			args = append(args, "--"+name+"="+text)
		}
	}
	return args, nil
}
