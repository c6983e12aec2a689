package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventTick   Event = "tick"
	EventResult Event = "result"
	EventPong   Event = "pong"
)

// TickResponse carries the countdown once per second.
type TickResponse struct {
	Event     Event  `json:"event"`
	Remaining int    `json:"remaining"`
	Clock     string `json:"clock"`
	Expired   bool   `json:"expired"`
}

// ResultResponse is sent once when the attempt has been scored.
type ResultResponse struct {
	Event  Event       `json:"event"`
	Result interface{} `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
