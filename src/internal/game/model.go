package game

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is one play-through for a player, created on game start and
// closed exactly once on game end. EndTime deliberately has no omitempty:
// open sessions store an explicit null, which the partial unique index
// and the open-session lookups filter on.
type Session struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PlayerID     string             `json:"player_id" bson:"player_id"`
	StartTime    time.Time          `json:"start_time" bson:"start_time"`
	EndTime      *time.Time         `json:"end_time" bson:"end_time"`
	GameDuration *float64           `json:"game_duration" bson:"game_duration,omitempty"`

	// Outcome
	FinalHope        *int    `json:"final_hope" bson:"final_hope,omitempty"`
	FinalPapers      *int    `json:"final_papers" bson:"final_papers,omitempty"`
	GraduationStatus *string `json:"graduation_status" bson:"graduation_status,omitempty"`
	IsWinner         bool    `json:"is_winner" bson:"is_winner"`
	SlackOffCount    int     `json:"slack_off_count" bson:"slack_off_count"`

	// Device and network snapshot, captured once at start
	IPAddress        *string        `json:"ip_address" bson:"ip_address,omitempty"`
	UserAgent        *string        `json:"user_agent" bson:"user_agent,omitempty"`
	DeviceInfo       map[string]any `json:"device_info" bson:"device_info,omitempty"`
	DeviceType       *string        `json:"device_type" bson:"device_type,omitempty"`
	Browser          *string        `json:"browser" bson:"browser,omitempty"`
	OS               *string        `json:"os" bson:"os,omitempty"`
	ScreenResolution *string        `json:"screen_resolution" bson:"screen_resolution,omitempty"`
	Language         *string        `json:"language" bson:"language,omitempty"`
	Timezone         *string        `json:"timezone" bson:"timezone,omitempty"`
	Country          *string        `json:"country" bson:"country,omitempty"`
	City             *string        `json:"city" bson:"city,omitempty"`

	// Behavior counters, reported by the client at session end
	TotalActions      int `json:"total_actions" bson:"total_actions"`
	ReadPaperActions  int `json:"read_paper_actions" bson:"read_paper_actions"`
	WorkActions       int `json:"work_actions" bson:"work_actions"`
	SlackOffActions   int `json:"slack_off_actions" bson:"slack_off_actions"`
	ConferenceActions int `json:"conference_actions" bson:"conference_actions"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Graduation status constants
const (
	StatusGraduated  = "graduated"
	StatusDroppedOut = "dropped_out"
)

const (
	// SlackOffMasterThreshold is the slack-off count from which a player
	// counts as a slack-off master.
	SlackOffMasterThreshold = 10

	LeaderboardSize = 10
)

// StartGameRequest carries the fields a client may send when a session
// starts. Everything but the player id is optional; derived fields the
// client supplies itself are accepted but recomputed server-side.
type StartGameRequest struct {
	PlayerID         string         `json:"player_id" binding:"required"`
	IPAddress        string         `json:"ip_address"`
	UserAgent        string         `json:"user_agent"`
	DeviceInfo       map[string]any `json:"device_info"`
	DeviceType       string         `json:"device_type"`
	Browser          string         `json:"browser"`
	OS               string         `json:"os"`
	ScreenResolution string         `json:"screen_resolution"`
	Language         string         `json:"language"`
	Timezone         string         `json:"timezone"`
	Country          string         `json:"country"`
	City             string         `json:"city"`
}

// EndGameRequest carries the final outcome. Pointers keep gin's required
// validation from rejecting legitimate zero values.
type EndGameRequest struct {
	PlayerID         string `json:"player_id" binding:"required"`
	FinalHope        *int   `json:"final_hope" binding:"required"`
	FinalPapers      *int   `json:"final_papers" binding:"required"`
	GraduationStatus string `json:"graduation_status" binding:"required"`
	IsWinner         *bool  `json:"is_winner" binding:"required"`
	SlackOffCount    *int   `json:"slack_off_count" binding:"required"`

	TotalActions      int `json:"total_actions"`
	ReadPaperActions  int `json:"read_paper_actions"`
	WorkActions       int `json:"work_actions"`
	SlackOffActions   int `json:"slack_off_actions"`
	ConferenceActions int `json:"conference_actions"`
}

// PlayerListItem is the trimmed listing view of a session record.
type PlayerListItem struct {
	PlayerID         string     `json:"player_id"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	GraduationStatus *string    `json:"graduation_status"`
	IsWinner         bool       `json:"is_winner"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PlayerListRequest are the (clamped) pagination inputs.
type PlayerListRequest struct {
	Page int `form:"page"`
	Size int `form:"size"`
}

// PlayerListResponse is the paginated listing payload.
type PlayerListResponse struct {
	Players    []PlayerListItem `json:"players"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	TotalPages int              `json:"total_pages"`
}

// ToListItem converts a session record into its listing view.
func (s *Session) ToListItem() PlayerListItem {
	return PlayerListItem{
		PlayerID:         s.PlayerID,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		GraduationStatus: s.GraduationStatus,
		IsWinner:         s.IsWinner,
		CreatedAt:        s.CreatedAt,
	}
}

// IsOpen reports whether the session has not ended yet.
func (s *Session) IsOpen() bool {
	return s.EndTime == nil
}
