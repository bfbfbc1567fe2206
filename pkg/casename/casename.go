// Package casename derives human-readable case identifiers from run
// configurations.
//
// A template is literal text with {field} placeholders:
//
//	sfl-{model_name}-{dataset}-sp{sp1}-{sp2}
//
// Doubled braces ({{ and }}) stand for literal braces. Placeholder values use
// the same canonical rendering as the command line, so the case name of a run
// always matches the flags it was started with.
package casename

import (
	"fmt"
	"strings"

	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/space"
)

type segment struct {
	literal string
	field   string // empty for literal segments
}

// Template is a parsed case-name template. The zero Template is empty and
// derives empty names.
type Template struct {
	raw      string
	segments []segment
}

// Parse compiles a template.
func Parse(raw string) (Template, error) {
	if raw == "" {
		return Template{}, &domain.ConfigurationError{Reason: "case-name template is empty"}
	}

	t := Template{raw: raw}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '{' && i+1 < len(raw) && raw[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(raw) && raw[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(raw[i+1:], '}')
			if end < 0 {
				return Template{}, templateError(raw, fmt.Sprintf("unclosed placeholder at offset %d", i))
			}
			field := strings.TrimSpace(raw[i+1 : i+1+end])
			if field == "" || strings.ContainsAny(field, "{") {
				return Template{}, templateError(raw, fmt.Sprintf("malformed placeholder at offset %d", i))
			}
			flush()
			t.segments = append(t.segments, segment{field: field})
			i += end + 1
		case c == '}':
			return Template{}, templateError(raw, fmt.Sprintf("unmatched '}' at offset %d", i))
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

// MustParse is like Parse but panics on error. It is meant for templates
// written in code.
func MustParse(raw string) Template {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func templateError(raw, reason string) error {
	return &domain.ConfigurationError{Reason: fmt.Sprintf("case-name template %q: %s", raw, reason)}
}

// Default builds the template "<label>-{axis1}-{axis2}-..." covering every
// axis of s in declaration order, so distinct configurations of one sweep
// get distinct names.
func Default(label string, s *space.Space) Template {
	var b strings.Builder
	b.WriteString(escape(label))
	for _, a := range s.Axes() {
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		b.WriteString("{" + a.Name + "}")
	}
	if b.Len() == 0 {
		b.WriteString("run")
	}
	return MustParse(b.String())
}

func escape(s string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(s)
}

// Derive renders the case name for cfg. It fails with
// *domain.MissingFieldError when the template references an unbound field.
// Derive has no side effects; equal configurations give equal names.
func (t Template) Derive(cfg domain.Configuration) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.field == "" {
			b.WriteString(seg.literal)
			continue
		}
		v, ok := cfg.Get(seg.field)
		if !ok {
			return "", &domain.MissingFieldError{Field: seg.field, Template: t.raw}
		}
		b.WriteString(v.Text())
	}
	return b.String(), nil
}

// Fields returns the fields referenced by the template, in order of first use.
func (t Template) Fields() []string {
	var out []string
	seen := make(map[string]bool)
	for _, seg := range t.segments {
		if seg.field != "" && !seen[seg.field] {
			seen[seg.field] = true
			out = append(out, seg.field)
		}
	}
	return out
}

// IsZero reports whether t is the empty template.
func (t Template) IsZero() bool { return t.raw == "" }

func (t Template) String() string { return t.raw }
