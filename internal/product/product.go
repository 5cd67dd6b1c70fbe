// Package product defines the catalog's single record type and the parsing
// rules shared by the client forms and the twin.
package product

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidIdentifier is returned when an identifier string is not a base-10 integer.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrBlankName is returned when a product name is empty or whitespace.
var ErrBlankName = errors.New("product name is required")

// Product is a catalog record. ID is assigned by the remote service; 0 means
// not yet created. The JSON names match the remote service exactly.
type Product struct {
	ID   int    `json:"ProductId"`
	Name string `json:"ProdName"`
}

// New returns a not-yet-created product with the given name.
func New(name string) Product {
	return Product{ID: 0, Name: name}
}

// Validate reports whether p carries a usable name.
func (p Product) Validate() error {
	if IsBlank(p.Name) {
		return ErrBlankName
	}
	return nil
}

// String returns "id: name", used by the CLI table and log lines.
func (p Product) String() string {
	return fmt.Sprintf("%d: %s", p.ID, p.Name)
}

// ParseID converts raw form input into an identifier.
func ParseID(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidIdentifier, s)
	}
	return id, nil
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
