package ir

import (
	"errors"
	"strings"

	language "github.com/hanpama/refetchgen/internal/language"
)

// ViolationKind identifies the message template a violation was built from.
type ViolationKind string

type Violation struct {
	Kind      ViolationKind `json:"kind"`
	Message   string        `json:"message"`
	Locations []Location    `json:"locations"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		for _, loc := range v.Locations {
			if loc.Source != "" {
				line += " " + loc.String()
			}
		}
		msg += line + "\n"
	}
	return msg
}

// Kinds lists the kind of every violation, in order.
func (e ValidationError) Kinds() []ViolationKind {
	kinds := make([]ViolationKind, len(e))
	for i, v := range e {
		kinds[i] = v.Kind
	}
	return kinds
}

// AsValidationError unwraps err into its violations.
func AsValidationError(err error) (ValidationError, bool) {
	var verr ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// NewViolation builds a violation cited at one or more locations.
func NewViolation(kind ViolationKind, message string, loc Location, more ...Location) *Violation {
	return &Violation{
		Kind:      kind,
		Message:   strings.TrimSpace(message),
		Locations: append([]Location{loc}, more...),
	}
}

// Core primitive used by all template helpers.
func violationWithPosition(kind ViolationKind, message string, pos *language.Position) *Violation {
	return NewViolation(kind, message, LocationOf(pos))
}
