// Package schema declares the content categories and their field schemas.
//
// The registry is read-only once built. Storage never consults it; it drives
// form validation, the admin client and the schema endpoints.
package schema

import (
	"errors"
	"fmt"

	"atelier/api/internal/keycodec"
)

// FieldType is the editor/value kind of a field.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeImage    FieldType = "image"
	TypeURL      FieldType = "url"
	TypeMarkdown FieldType = "markdown"
	TypeNumber   FieldType = "number"
	TypeBoolean  FieldType = "boolean"
	TypeArray    FieldType = "array"
)

func (t FieldType) valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeImage, TypeURL, TypeMarkdown, TypeNumber, TypeBoolean, TypeArray:
		return true
	default:
		return false
	}
}

// Field describes one attribute of a content item.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Label       string    `json:"label" yaml:"label"`
	Type        FieldType `json:"type" yaml:"type"`
	Required    bool      `json:"required,omitempty" yaml:"required"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder"`
	// ItemFields is the schema of each element of an array field.
	ItemFields []Field `json:"itemFields,omitempty" yaml:"itemFields"`
}

// Category is a named content type.
type Category struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Icon        string  `json:"icon" yaml:"icon"`
	Description string  `json:"description" yaml:"description"`
	Fields      []Field `json:"fields" yaml:"fields"`
	// Singleton categories hold exactly one item at keycodec.SingletonID.
	Singleton bool `json:"singleton,omitempty" yaml:"singleton"`
}

var ErrInvalidSchema = errors.New("invalid schema")

// Registry is an immutable, ordered set of categories.
type Registry struct {
	categories []Category
	byID       map[string]int
}

// NewRegistry validates the categories and indexes them by id.
func NewRegistry(categories ...Category) (*Registry, error) {
	r := &Registry{
		categories: make([]Category, 0, len(categories)),
		byID:       make(map[string]int, len(categories)),
	}
	for _, category := range categories {
		if err := validateCategory(category); err != nil {
			return nil, err
		}
		if _, dup := r.byID[category.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate category id %q", ErrInvalidSchema, category.ID)
		}
		r.byID[category.ID] = len(r.categories)
		r.categories = append(r.categories, category)
	}
	return r, nil
}

// MustRegistry panics on an invalid configuration.
func MustRegistry(categories ...Category) *Registry {
	r, err := NewRegistry(categories...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get looks a category up by id.
func (r *Registry) Get(id string) (Category, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Category{}, false
	}
	return r.categories[idx], true
}

// Categories returns the categories in configuration order.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

func validateCategory(category Category) error {
	if err := keycodec.ValidateCategory(category.ID); err != nil {
		return fmt.Errorf("%w: category id: %v", ErrInvalidSchema, err)
	}
	if err := validateFields(category.ID, category.Fields, false); err != nil {
		return err
	}
	return nil
}

func validateFields(scope string, fields []Field, nested bool) error {
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if field.Name == "" {
			return fmt.Errorf("%w: %s: field with empty name", ErrInvalidSchema, scope)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidSchema, scope, field.Name)
		}
		seen[field.Name] = struct{}{}

		if !field.Type.valid() {
			return fmt.Errorf("%w: %s.%s: unknown type %q", ErrInvalidSchema, scope, field.Name, field.Type)
		}
		if field.Type != TypeArray {
			if len(field.ItemFields) > 0 {
				return fmt.Errorf("%w: %s.%s: itemFields on non-array field", ErrInvalidSchema, scope, field.Name)
			}
			continue
		}
		if nested {
			return fmt.Errorf("%w: %s.%s: arrays cannot nest", ErrInvalidSchema, scope, field.Name)
		}
		if err := validateFields(scope+"."+field.Name, field.ItemFields, true); err != nil {
			return err
		}
	}
	return nil
}
