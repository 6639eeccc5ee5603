package checkers

import "fmt"

// Move records one relocation in canonical coordinates, together with the
// effects and turn flags needed to undo or replay it exactly.
type Move struct {
	Start    Position `json:"start"`
	End      Position `json:"end"`
	Mover    Color    `json:"mover"`
	Capture  bool     `json:"capture,omitempty"`
	Captured Piece    `json:"captured"`
	Promoted bool     `json:"promoted,omitempty"`

	// ContinuesCapture is set when the same piece must jump again.
	ContinuesCapture bool `json:"continues_capture,omitempty"`
	// FirstOfTurn and ChainContinuation are the turn flags in effect
	// before the move was made.
	FirstOfTurn       bool `json:"first_of_turn,omitempty"`
	ChainContinuation bool `json:"chain_continuation,omitempty"`
}

func (m Move) Midpoint() Position { return m.Start.midpoint(m.End) }

// ForViewer returns the move with its squares in viewer's coordinates.
func (m Move) ForViewer(viewer Color) Move {
	m.Start = ToViewerPerspective(viewer, m.Start)
	m.End = ToViewerPerspective(viewer, m.End)
	return m
}

func (m Move) String() string {
	sep := "-"
	if m.Capture {
		sep = "x"
	}
	s := fmt.Sprintf("%s %s%s%s", m.Mover, m.Start, sep, m.End)
	if m.Promoted {
		s += "=K"
	}
	return s
}
