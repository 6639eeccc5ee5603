package checkersdto

import "time"

type Position struct {
	Row  int `json:"row"`
	Cell int `json:"cell"`
}

type Piece struct {
	Color string `json:"color"`
	Type  string `json:"type"` // SINGLE | KING
}

type Space struct {
	Cell  int    `json:"cell"`
	Dark  bool   `json:"dark"`
	Piece *Piece `json:"piece,omitempty"`
}

type Row struct {
	Index  int     `json:"index"`
	Spaces []Space `json:"spaces"`
}

// BoardView is the board as one viewer sees it, own pieces at the bottom.
type BoardView struct {
	Viewer      string `json:"viewer"`
	Rows        []Row  `json:"rows"`
	RedPieces   int    `json:"red_pieces"`
	WhitePieces int    `json:"white_pieces"`
}

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Move struct {
	Start    Position `json:"start"`
	End      Position `json:"end"`
	Mover    string   `json:"mover"`
	Capture  bool     `json:"capture,omitempty"`
	Promoted bool     `json:"promoted,omitempty"`
}

type GameView struct {
	ID           string    `json:"id"`
	Red          Player    `json:"red"`
	White        Player    `json:"white"`
	ActiveColor  string    `json:"active_color"`
	Status       string    `json:"status"`
	Winner       string    `json:"winner,omitempty"`
	Resigned     string    `json:"resigned,omitempty"`
	MustContinue bool      `json:"must_continue,omitempty"`
	Pending      []Move    `json:"pending,omitempty"`
	Board        BoardView `json:"board"`
	LastMoveAt   time.Time `json:"last_move_at"`
}

type ReplayView struct {
	GameID      string    `json:"game_id"`
	Cursor      int       `json:"cursor"`
	Total       int       `json:"total"`
	AtStart     bool      `json:"at_start"`
	AtEnd       bool      `json:"at_end"`
	ActiveColor string    `json:"active_color"`
	LastMove    *Move     `json:"last_move,omitempty"`
	Board       BoardView `json:"board"`
}

type ArchiveEntry struct {
	ID       string    `json:"id"`
	Red      string    `json:"red"`
	White    string    `json:"white"`
	Status   string    `json:"status"`
	Winner   string    `json:"winner,omitempty"`
	Method   string    `json:"method"`
	Moves    int       `json:"moves"`
	EndedAt  time.Time `json:"ended_at"`
	Notation string    `json:"notation,omitempty"`
}
