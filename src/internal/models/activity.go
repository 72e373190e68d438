package models

import "time"

type ActivityMessage struct {
	PlayerID    string            `json:"player_id"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	IPAddress   string            `json:"ip_address,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Activity action constants
const (
	ActionGameStarted = "game_started"
	ActionGameEnded   = "game_ended"
)

// Service name constants
const (
	ServiceGameStart = "telemetry.handler.game_start"
	ServiceGameEnd   = "telemetry.handler.game_end"
)
