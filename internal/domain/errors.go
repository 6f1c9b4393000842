package domain

import "errors"

// ErrInvalidRequest indicates that a generation request contains invalid data.
var ErrInvalidRequest = errors.New("invalid generation request")

// ErrInvalidDiagramType indicates a diagram type outside the fixed set.
var ErrInvalidDiagramType = errors.New("invalid diagram type")

// ErrEmptyNarrative indicates a provider returned blank narrative content.
var ErrEmptyNarrative = errors.New("empty narrative content")
