package domain

import (
	"bytes"
	"encoding/json"
	"iter"
	"slices"
	"strings"
)

// Field is a single named parameter value.
type Field struct {
	Name  string
	Value Value
}

// Configuration is an ordered, immutable mapping from parameter name to Value.
// Key order is the order in which parameters were first bound; it determines
// flag order on the command line and is therefore part of reproducibility.
// Every method that "changes" a Configuration returns a new one.
type Configuration struct {
	keys   []string
	values map[string]Value
}

// NewConfiguration builds a Configuration from fields in order.
// A repeated name keeps its first position and takes the last value.
func NewConfiguration(fields ...Field) Configuration {
	c := Configuration{
		keys:   make([]string, 0, len(fields)),
		values: make(map[string]Value, len(fields)),
	}
	for _, f := range fields {
		if _, exists := c.values[f.Name]; !exists {
			c.keys = append(c.keys, f.Name)
		}
		c.values[f.Name] = f.Value
	}
	return c
}

// Len returns the number of parameters bound.
func (c Configuration) Len() int { return len(c.keys) }

// Get returns the value bound to name.
func (c Configuration) Get(name string) (Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Has reports whether name is bound.
func (c Configuration) Has(name string) bool {
	_, ok := c.values[name]
	return ok
}

// Keys returns the parameter names in order.
func (c Configuration) Keys() []string { return slices.Clone(c.keys) }

// All iterates over the bound parameters in order.
func (c Configuration) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range c.keys {
			if !yield(k, c.values[k]) {
				return
			}
		}
	}
}

// With returns a copy of c with name bound to v.
func (c Configuration) With(name string, v Value) Configuration {
	return c.Merge(NewConfiguration(Field{Name: name, Value: v}))
}

// Merge returns a copy of c with every parameter of o applied on top.
// Values from o win; names new to c are appended in o's order.
func (c Configuration) Merge(o Configuration) Configuration {
	out := Configuration{
		keys:   make([]string, len(c.keys), len(c.keys)+len(o.keys)),
		values: make(map[string]Value, len(c.keys)+len(o.keys)),
	}
	copy(out.keys, c.keys)
	for k, v := range c.values {
		out.values[k] = v
	}
	for _, k := range o.keys {
		if _, exists := out.values[k]; !exists {
			out.keys = append(out.keys, k)
		}
		out.values[k] = o.values[k]
	}
	return out
}

// Equal reports whether c and o bind the same names, in the same order, to
// equal values.
func (c Configuration) Equal(o Configuration) bool {
	if !slices.Equal(c.keys, o.keys) {
		return false
	}
	for _, k := range c.keys {
		if !c.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

// Fields returns a plain map copy of the configuration with native values.
// It is meant for error messages and structured logs.
func (c Configuration) Fields() map[string]any {
	out := make(map[string]any, len(c.keys))
	for _, k := range c.keys {
		out[k] = c.values[k].Interface()
	}
	return out
}

// String renders the configuration as {k=v, ...} in key order.
func (c Configuration) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.values[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the configuration as a JSON object preserving key order.
func (c Configuration) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving the order of its keys.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return &ConfigurationError{Reason: "configuration must be a JSON object"}
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		v, err := ValueOf(raw)
		if err != nil {
			return err
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = NewConfiguration(fields...)
	return nil
}
