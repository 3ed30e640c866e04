// Package keycodec maps (category, id) pairs onto the flat key-value namespace.
//
// A storage key is the category and the id joined by a single ":". Decoding splits
// on the first ":" only, so ids may themselves contain the separator while
// categories may not.
package keycodec

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins category and id in a storage key.
const Separator = ":"

// SingletonID is the fixed id of the only item in a singleton category.
const SingletonID = "singleton"

var (
	ErrInvalidCategory  = errors.New("invalid category")
	ErrMissingSeparator = errors.New("key has no category separator")
)

// Key addresses one content item.
type Key struct {
	Category string
	ID       string
}

// New validates the category and returns the key for (category, id).
func New(category, id string) (Key, error) {
	if err := ValidateCategory(category); err != nil {
		return Key{}, err
	}
	return Key{Category: category, ID: id}, nil
}

// ValidateCategory rejects empty categories and categories containing the separator.
func ValidateCategory(category string) error {
	if category == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCategory)
	}
	if strings.Contains(category, Separator) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidCategory, category, Separator)
	}
	return nil
}

// String returns the encoded storage key.
func (k Key) String() string {
	return Encode(k.Category, k.ID)
}

// Encode joins category and id without validation.
func Encode(category, id string) string {
	return category + Separator + id
}

// Prefix returns the key prefix shared by every item of a category.
func Prefix(category string) string {
	return category + Separator
}

// Parse splits a storage key on its first separator.
func Parse(key string) (Key, error) {
	category, id, found := strings.Cut(key, Separator)
	if !found {
		return Key{}, fmt.Errorf("%w: %q", ErrMissingSeparator, key)
	}
	if category == "" {
		return Key{}, fmt.Errorf("%w: empty in key %q", ErrInvalidCategory, key)
	}
	return Key{Category: category, ID: id}, nil
}
