package sandbox

import (
	"errors"
	"fmt"
)

var (
	ErrMissingExport = errors.New("support runtime missing required export")
	ErrMemoryWrite   = errors.New("competitor bytes exceed guest memory")
)

// Side identifies one of the two competitor slots.
type Side int

const (
	SideRed Side = iota
	SideBlue
)

func (s Side) String() string {
	if s == SideRed {
		return "RED"
	}
	return "BLUE"
}

// InvalidCompetitorError reports that a competitor module loaded but
// failed the runtime's structural checks. It is fatal for the run:
// retrying with another seed cannot fix a malformed module.
type InvalidCompetitorError struct {
	Side Side
}

func (e *InvalidCompetitorError) Error() string {
	return fmt.Sprintf("%s module failed validation inside the runtime", e.Side)
}
