package checkersdto

type CreateGameRequest struct {
	Red   Player `json:"red"`
	White Player `json:"white"`
}

type MoveRequest struct {
	UserID string   `json:"user_id"`
	Start  Position `json:"start"`
	End    Position `json:"end"`
}

type TurnRequest struct {
	UserID string `json:"user_id"`
}

type SpectateRequest struct {
	SpectatorID string `json:"spectator_id"`
}

type ReplayRequest struct {
	ViewerID string `json:"viewer_id"`
	GameID   string `json:"game_id"`
	Color    string `json:"color,omitempty"`
}

// Message mirrors the INFO/ERROR notices shown to players.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	MessageInfo  = "INFO"
	MessageError = "ERROR"
)

func Info(text string) Message  { return Message{Type: MessageInfo, Text: text} }
func Error(text string) Message { return Message{Type: MessageError, Text: text} }

// MoveResponse answers validate and play requests.
type MoveResponse struct {
	Message      Message `json:"message"`
	MustContinue bool    `json:"must_continue,omitempty"`
	Move         *Move   `json:"move,omitempty"`
}
