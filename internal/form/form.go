// Package form holds editor state for one content item and checks required
// fields before anything is sent to the API.
package form

import (
	"fmt"
	"strings"

	"atelier/api/internal/schema"
)

// ValidationError lists the labels of required fields that have no value.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required fields missing: %s", strings.Join(e.Missing, ", "))
}

// Missing returns the labels of required fields whose value is absent or nil.
// false, 0 and "" count as values.
func Missing(fields []schema.Field, values map[string]any) []string {
	var missing []string
	for _, field := range fields {
		if !field.Required {
			continue
		}
		if v, ok := values[field.Name]; !ok || v == nil {
			missing = append(missing, field.Label)
		}
	}
	return missing
}

// Validate wraps Missing in a *ValidationError, or returns nil.
func Validate(fields []schema.Field, values map[string]any) error {
	if missing := Missing(fields, values); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// State is the working copy of an item being edited.
type State struct {
	fields []schema.Field
	values map[string]any
}

// NewState starts from initial values, typically the item being edited. The
// "id" attribute is dropped; the id travels in the address, not the payload.
func NewState(fields []schema.Field, initial map[string]any) *State {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		if k == "id" {
			continue
		}
		values[k] = v
	}
	return &State{fields: fields, values: values}
}

func (s *State) Fields() []schema.Field {
	return s.fields
}

// Set replaces one field's value. Setting nil clears it.
func (s *State) Set(name string, value any) {
	if value == nil {
		delete(s.values, name)
		return
	}
	s.values[name] = value
}

func (s *State) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// AppendItem adds an empty element to an array field.
func (s *State) AppendItem(name string) {
	items := s.items(name)
	s.values[name] = append(items, map[string]any{})
}

// RemoveItem drops the element at index from an array field.
func (s *State) RemoveItem(name string, index int) {
	items := s.items(name)
	if index < 0 || index >= len(items) {
		return
	}
	out := make([]map[string]any, 0, len(items)-1)
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	s.values[name] = out
}

// SetItemField sets one sub-field of an array element.
func (s *State) SetItemField(name string, index int, field string, value any) {
	items := s.items(name)
	if index < 0 || index >= len(items) {
		return
	}
	updated := make(map[string]any, len(items[index])+1)
	for k, v := range items[index] {
		updated[k] = v
	}
	updated[field] = value
	items[index] = updated
	s.values[name] = items
}

func (s *State) items(name string) []map[string]any {
	switch v := s.values[name].(type) {
	case []map[string]any:
		return append([]map[string]any(nil), v...)
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, elem := range v {
			if m, ok := elem.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// Values returns a copy of the current values.
func (s *State) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Validate checks the required top-level fields.
func (s *State) Validate() error {
	return Validate(s.fields, s.values)
}
