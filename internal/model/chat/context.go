package chat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownContext is returned when a context value is not one of the fixed categories.
var ErrUnknownContext = errors.New("unknown context")

// Context tags a query with one of the fixed support categories.
type Context string

const (
	ContextProductInquiry Context = "product_inquiry"
	ContextTechnical      Context = "technical"
	ContextBilling        Context = "billing"
)

// DefaultContext is selected for a fresh session.
const DefaultContext = ContextProductInquiry

// Option pairs a context value with the label shown in the selector.
type Option struct {
	Value   Context `json:"value"`
	Label   string  `json:"label"`
	Default bool    `json:"default,omitempty"`
}

var options = []Option{
	{Value: ContextProductInquiry, Label: "Product Inquiry", Default: true},
	{Value: ContextTechnical, Label: "Technical Support"},
	{Value: ContextBilling, Label: "Billing"},
}

// Options returns the selectable contexts in display order.
func Options() []Option {
	return append([]Option(nil), options...)
}

// ParseContext resolves a raw value into a Context.
func ParseContext(raw string) (Context, error) {
	value := Context(strings.TrimSpace(raw))
	if !value.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContext, raw)
	}
	return value, nil
}

// Valid reports whether c is one of the fixed categories.
func (c Context) Valid() bool {
	for _, opt := range options {
		if opt.Value == c {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw value for unknown contexts.
func (c Context) Label() string {
	for _, opt := range options {
		if opt.Value == c {
			return opt.Label
		}
	}
	return string(c)
}

// Next returns the context following c in display order, wrapping around.
func (c Context) Next() Context {
	for i, opt := range options {
		if opt.Value == c {
			return options[(i+1)%len(options)].Value
		}
	}
	return DefaultContext
}
