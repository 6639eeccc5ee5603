package checkers

import (
	"errors"
	"fmt"
)

// RejectionKind classifies why an operation was refused.
type RejectionKind string

const (
	KindOutOfBounds          RejectionKind = "out_of_bounds"
	KindAlreadyMoved         RejectionKind = "already_moved"
	KindMustCapture          RejectionKind = "must_capture"
	KindIllegalBackwardMove  RejectionKind = "illegal_backward_move"
	KindNoPieceToCapture     RejectionKind = "no_piece_to_capture"
	KindCaptureTargetInvalid RejectionKind = "capture_target_invalid"
	KindNotPlayersTurn       RejectionKind = "not_players_turn"
	KindGameAlreadyOver      RejectionKind = "game_already_over"
	KindNotYourPiece         RejectionKind = "not_your_piece"
	KindIllegalMoveShape     RejectionKind = "illegal_move_shape"
	KindDestinationBlocked   RejectionKind = "destination_blocked"
	KindChainIncomplete      RejectionKind = "chain_incomplete"
	KindNoMoveMade           RejectionKind = "no_move_made"
)

// Rejection is returned for every refused move or turn operation. Rejections
// never leave the game modified. errors.Is matches on Kind alone, so callers
// can compare against the Err* values below.
type Rejection struct {
	Kind   RejectionKind
	Reason string
}

func (r *Rejection) Error() string {
	if r.Reason == "" {
		return string(r.Kind)
	}
	return string(r.Kind) + ": " + r.Reason
}

func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Kind == r.Kind
}

var (
	ErrOutOfBounds          = &Rejection{Kind: KindOutOfBounds}
	ErrAlreadyMoved         = &Rejection{Kind: KindAlreadyMoved}
	ErrMustCapture          = &Rejection{Kind: KindMustCapture}
	ErrIllegalBackwardMove  = &Rejection{Kind: KindIllegalBackwardMove}
	ErrNoPieceToCapture     = &Rejection{Kind: KindNoPieceToCapture}
	ErrCaptureTargetInvalid = &Rejection{Kind: KindCaptureTargetInvalid}
	ErrNotPlayersTurn       = &Rejection{Kind: KindNotPlayersTurn}
	ErrGameAlreadyOver      = &Rejection{Kind: KindGameAlreadyOver}
	ErrNotYourPiece         = &Rejection{Kind: KindNotYourPiece}
	ErrIllegalMoveShape     = &Rejection{Kind: KindIllegalMoveShape}
	ErrDestinationBlocked   = &Rejection{Kind: KindDestinationBlocked}
	ErrChainIncomplete      = &Rejection{Kind: KindChainIncomplete}
	ErrNoMoveMade           = &Rejection{Kind: KindNoMoveMade}
)

func reject(kind RejectionKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a *Rejection if it carries one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
