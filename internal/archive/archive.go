package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-Checkers/internal/checkers"
)

var ErrNotFound = errors.New("archived game not found")

// Method names how a game ended.
const (
	MethodCapture     = "capture"
	MethodResignation = "resignation"
)

// Store keeps finished games, read-only, by game id.
type Store interface {
	Save(ctx context.Context, snap checkers.Snapshot) error
	Load(ctx context.Context, id string) (*checkers.Snapshot, error)
	List(ctx context.Context, limit int) ([]Summary, error)
	Close() error
}

type Summary struct {
	ID        string
	RedName   string
	WhiteName string
	Status    checkers.Status
	Winner    checkers.Color
	Method    string
	Moves     int
	EndedAt   time.Time
}

func summarize(s checkers.Snapshot) Summary {
	return Summary{
		ID:        s.ID,
		RedName:   s.Red.Name,
		WhiteName: s.White.Name,
		Status:    s.Status,
		Winner:    Winner(s),
		Method:    Method(s),
		Moves:     len(s.History),
		EndedAt:   s.LastMoveAt,
	}
}

// Winner resolves the winning side, counting resignation.
func Winner(s checkers.Snapshot) checkers.Color {
	if s.Resigned != checkers.NoColor {
		return s.Resigned.Opponent()
	}
	return s.Winner
}

func Method(s checkers.Snapshot) string {
	if s.Status == checkers.StatusResigned {
		return MethodResignation
	}
	return MethodCapture
}

// Result is the PDN result token from Red's side: 2-0, 0-2 or *.
func Result(s checkers.Snapshot) string {
	switch Winner(s) {
	case checkers.Red:
		return "2-0"
	case checkers.White:
		return "0-2"
	default:
		return "*"
	}
}

// SquareNumber maps a canonical dark square to 1..32, row-major from row 0.
func SquareNumber(p checkers.Position) int {
	return p.Row*4 + p.Col/2 + 1
}

// Notation renders the game in Portable Draughts Notation. A capture chain
// is written as one move, e.g. 22x15x6.
func Notation(s checkers.Snapshot) string {
	var b strings.Builder
	date := s.LastMoveAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString("[Event \"Checkers\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[Red \"%s\"]\n", sanitize(s.Red.Name)))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitize(s.White.Name)))
	if s.Status != checkers.StatusActive {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", Method(s)))
	}
	result := Result(s)
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", result))

	turns := groupTurns(s.History)
	for i, t := range turns {
		if i%2 == 0 {
			b.WriteString(fmt.Sprintf("%d. ", i/2+1))
		}
		b.WriteString(t)
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

func groupTurns(moves []checkers.Move) []string {
	var out []string
	var cur strings.Builder
	for _, m := range moves {
		if m.FirstOfTurn || cur.Len() == 0 {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			cur.WriteString(fmt.Sprint(SquareNumber(m.Start)))
		}
		sep := "-"
		if m.Capture {
			sep = "x"
		}
		cur.WriteString(sep)
		cur.WriteString(fmt.Sprint(SquareNumber(m.End)))
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
