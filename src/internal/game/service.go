package game

import (
	"context"
	"errors"
	"math"
	"phdsim-telemetry-svc/src/internal/config"
	"phdsim-telemetry-svc/src/internal/device"
	"phdsim-telemetry-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
)

type Service interface {
	StartGame(ctx context.Context, req *StartGameRequest, clientIP string) (*Session, error)
	EndGame(ctx context.Context, req *EndGameRequest) (*Session, error)
	GetPlayerGame(ctx context.Context, playerID string) (*Session, error)
	GetStats(ctx context.Context) (*models.Stats, error)
	GetLeaderboard(ctx context.Context) (*models.Leaderboard, error)
	ListPlayers(ctx context.Context, req *PlayerListRequest) (*PlayerListResponse, error)
}

type gameService struct {
	repository Repository
	cfg        *config.Configuration
	now        func() time.Time
}

func NewGameService(repository Repository, cfg *config.Configuration) Service {
	return &gameService{
		repository: repository,
		cfg:        cfg,
		now:        time.Now,
	}
}

// StartGame returns the player's open session if one exists, otherwise it
// derives the device metadata and creates a new record. Retrying start is
// therefore idempotent: a reload never produces a duplicate open session.
func (s *gameService) StartGame(ctx context.Context, req *StartGameRequest, clientIP string) (*Session, error) {
	existing, err := s.repository.FindOpenByPlayerID(ctx, req.PlayerID)
	if err == nil {
		logrus.WithField("player_id", req.PlayerID).Debug("Open game session already exists, returning it")
		return existing, nil
	}
	if !errors.Is(err, models.ErrNoActiveGame) {
		return nil, err
	}

	meta := device.Extract(device.Input{
		IPAddress:        clientIP,
		UserAgent:        req.UserAgent,
		ScreenResolution: req.ScreenResolution,
		Language:         req.Language,
		Timezone:         req.Timezone,
	})

	now := s.now().UTC()
	session := &Session{
		PlayerID:         req.PlayerID,
		StartTime:        now,
		IPAddress:        optional(clientIP),
		UserAgent:        optional(req.UserAgent),
		DeviceInfo:       req.DeviceInfo,
		DeviceType:       meta.DeviceType,
		Browser:          meta.Browser,
		OS:               meta.OS,
		ScreenResolution: meta.ScreenResolution,
		Language:         meta.Language,
		Timezone:         meta.Timezone,
		Country:          meta.Country,
		City:             meta.City,
		CreatedAt:        now,
	}

	created, err := s.repository.Insert(ctx, session)
	if err != nil {
		// A concurrent start for the same player won the insert; the
		// unique partial index rejected ours, so return the winner's
		// record instead.
		if errors.Is(err, models.ErrDuplicateRecord) {
			logrus.WithField("player_id", req.PlayerID).Debug("Concurrent start detected, returning existing session")
			return s.repository.FindOpenByPlayerID(ctx, req.PlayerID)
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"player_id":   created.PlayerID,
		"device_type": deref(created.DeviceType),
		"country":     deref(created.Country),
	}).Info("Game session started")

	return created, nil
}

// EndGame closes the player's open session, computing the duration in
// minutes from its start time. A player without an open session, including
// one whose session was already ended, gets ErrNoActiveGame.
func (s *gameService) EndGame(ctx context.Context, req *EndGameRequest) (*Session, error) {
	open, err := s.repository.FindOpenByPlayerID(ctx, req.PlayerID)
	if err != nil {
		return nil, err
	}

	endTime := s.now().UTC()
	duration := endTime.Sub(open.StartTime).Minutes()

	outcome := &SessionOutcome{
		EndTime:           endTime,
		GameDuration:      duration,
		FinalHope:         *req.FinalHope,
		FinalPapers:       *req.FinalPapers,
		GraduationStatus:  req.GraduationStatus,
		IsWinner:          *req.IsWinner,
		SlackOffCount:     *req.SlackOffCount,
		TotalActions:      req.TotalActions,
		ReadPaperActions:  req.ReadPaperActions,
		WorkActions:       req.WorkActions,
		SlackOffActions:   req.SlackOffActions,
		ConferenceActions: req.ConferenceActions,
	}

	closed, err := s.repository.CloseOpenSession(ctx, req.PlayerID, outcome)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"player_id":         closed.PlayerID,
		"graduation_status": deref(closed.GraduationStatus),
		"is_winner":         closed.IsWinner,
		"duration_minutes":  duration,
	}).Info("Game session ended")

	return closed, nil
}

func (s *gameService) GetPlayerGame(ctx context.Context, playerID string) (*Session, error) {
	return s.repository.FindLatestByPlayerID(ctx, playerID)
}

func (s *gameService) GetStats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.repository.GetStats(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get game stats from repository")
		return nil, err
	}

	stats.AverageHope = round2(stats.AverageHope)
	stats.AveragePapers = round2(stats.AveragePapers)
	stats.AverageDuration = round2(stats.AverageDuration)

	return stats, nil
}

func (s *gameService) GetLeaderboard(ctx context.Context) (*models.Leaderboard, error) {
	topHope, err := s.repository.TopByHope(ctx, LeaderboardSize)
	if err != nil {
		return nil, err
	}

	topPapers, err := s.repository.TopByPapers(ctx, LeaderboardSize)
	if err != nil {
		return nil, err
	}

	topSlackOff, err := s.repository.TopBySlackOff(ctx, LeaderboardSize)
	if err != nil {
		return nil, err
	}

	board := &models.Leaderboard{
		TopHope:         make([]models.HopeEntry, 0, len(topHope)),
		TopPapers:       make([]models.PapersEntry, 0, len(topPapers)),
		SlackOffMasters: make([]models.SlackOffEntry, 0, len(topSlackOff)),
	}

	for _, session := range topHope {
		if session.FinalHope == nil {
			continue
		}
		board.TopHope = append(board.TopHope, models.HopeEntry{
			PlayerID:         session.PlayerID,
			FinalHope:        *session.FinalHope,
			GraduationStatus: session.GraduationStatus,
		})
	}

	for _, session := range topPapers {
		if session.FinalPapers == nil {
			continue
		}
		board.TopPapers = append(board.TopPapers, models.PapersEntry{
			PlayerID:         session.PlayerID,
			FinalPapers:      *session.FinalPapers,
			GraduationStatus: session.GraduationStatus,
		})
	}

	for _, session := range topSlackOff {
		board.SlackOffMasters = append(board.SlackOffMasters, models.SlackOffEntry{
			PlayerID:         session.PlayerID,
			SlackOffCount:    session.SlackOffCount,
			GraduationStatus: session.GraduationStatus,
		})
	}

	return board, nil
}

// ListPlayers clamps the pagination inputs instead of rejecting them:
// page below 1 becomes 1, size outside 1..max becomes the default/max.
func (s *gameService) ListPlayers(ctx context.Context, req *PlayerListRequest) (*PlayerListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Size < 1 {
		req.Size = s.cfg.Pagination.DefaultSize
	}
	if req.Size > s.cfg.Pagination.MaxSize {
		req.Size = s.cfg.Pagination.MaxSize
	}

	sessions, totalCount, err := s.repository.List(ctx, req.Page, req.Size)
	if err != nil {
		logrus.WithError(err).Error("Failed to list players from repository")
		return nil, err
	}

	players := make([]PlayerListItem, len(sessions))
	for i, session := range sessions {
		players[i] = session.ToListItem()
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(req.Size)))

	return &PlayerListResponse{
		Players:    players,
		TotalCount: totalCount,
		Page:       req.Page,
		Size:       req.Size,
		TotalPages: totalPages,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
