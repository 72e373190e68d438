package game

import (
	"context"
	"math"
	"phdsim-telemetry-svc/src/internal/config"
	"phdsim-telemetry-svc/src/internal/models"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeRepository keeps sessions in memory and mimics the unique partial
// index: inserting a second open session for a player fails with
// ErrDuplicateRecord.
type fakeRepository struct {
	sessions  []*Session
	stats     *models.Stats
	insertErr error
}

func (f *fakeRepository) Insert(_ context.Context, session *Session) (*Session, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	for _, s := range f.sessions {
		if s.PlayerID == session.PlayerID && s.IsOpen() {
			return nil, models.ErrDuplicateRecord
		}
	}
	session.ID = primitive.NewObjectID()
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeRepository) FindOpenByPlayerID(_ context.Context, playerID string) (*Session, error) {
	for _, s := range f.sessions {
		if s.PlayerID == playerID && s.IsOpen() {
			return s, nil
		}
	}
	return nil, models.ErrNoActiveGame
}

func (f *fakeRepository) FindLatestByPlayerID(_ context.Context, playerID string) (*Session, error) {
	var latest *Session
	for _, s := range f.sessions {
		if s.PlayerID != playerID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, models.ErrGameNotFound
	}
	return latest, nil
}

func (f *fakeRepository) CloseOpenSession(ctx context.Context, playerID string, outcome *SessionOutcome) (*Session, error) {
	session, err := f.FindOpenByPlayerID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	endTime := outcome.EndTime
	session.EndTime = &endTime
	session.GameDuration = &outcome.GameDuration
	session.FinalHope = &outcome.FinalHope
	session.FinalPapers = &outcome.FinalPapers
	session.GraduationStatus = &outcome.GraduationStatus
	session.IsWinner = outcome.IsWinner
	session.SlackOffCount = outcome.SlackOffCount
	session.TotalActions = outcome.TotalActions
	session.ReadPaperActions = outcome.ReadPaperActions
	session.WorkActions = outcome.WorkActions
	session.SlackOffActions = outcome.SlackOffActions
	session.ConferenceActions = outcome.ConferenceActions
	return session, nil
}

func (f *fakeRepository) GetStats(_ context.Context) (*models.Stats, error) {
	if f.stats != nil {
		return f.stats, nil
	}
	return &models.Stats{}, nil
}

func (f *fakeRepository) TopByHope(_ context.Context, limit int) ([]*Session, error) {
	var out []*Session
	for _, s := range f.sessions {
		if s.FinalHope != nil {
			out = append(out, s)
		}
	}
	sortSessionsDesc(out, func(s *Session) int { return *s.FinalHope })
	return capSessions(out, limit), nil
}

func (f *fakeRepository) TopByPapers(_ context.Context, limit int) ([]*Session, error) {
	var out []*Session
	for _, s := range f.sessions {
		if s.FinalPapers != nil {
			out = append(out, s)
		}
	}
	sortSessionsDesc(out, func(s *Session) int { return *s.FinalPapers })
	return capSessions(out, limit), nil
}

func (f *fakeRepository) TopBySlackOff(_ context.Context, limit int) ([]*Session, error) {
	var out []*Session
	for _, s := range f.sessions {
		if s.SlackOffCount >= SlackOffMasterThreshold {
			out = append(out, s)
		}
	}
	sortSessionsDesc(out, func(s *Session) int { return s.SlackOffCount })
	return capSessions(out, limit), nil
}

func (f *fakeRepository) List(_ context.Context, page, size int) ([]*Session, int64, error) {
	players := map[string]bool{}
	for _, s := range f.sessions {
		players[s.PlayerID] = true
	}

	start := (page - 1) * size
	if start >= len(f.sessions) {
		return nil, int64(len(players)), nil
	}
	end := start + size
	if end > len(f.sessions) {
		end = len(f.sessions)
	}
	return f.sessions[start:end], int64(len(players)), nil
}

func sortSessionsDesc(sessions []*Session, metric func(*Session) int) {
	for i := 1; i < len(sessions); i++ {
		for j := i; j > 0 && metric(sessions[j]) > metric(sessions[j-1]); j-- {
			sessions[j], sessions[j-1] = sessions[j-1], sessions[j]
		}
	}
}

func capSessions(sessions []*Session, limit int) []*Session {
	if len(sessions) > limit {
		return sessions[:limit]
	}
	return sessions
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		Pagination: config.PaginationSettings{
			DefaultSize: 20,
			MaxSize:     100,
		},
	}
}

func newTestService(repo Repository, now func() time.Time) *gameService {
	if now == nil {
		now = time.Now
	}
	return &gameService{
		repository: repo,
		cfg:        testConfig(),
		now:        now,
	}
}

func endRequest(playerID string, hope, papers, slackOff int, winner bool, status string) *EndGameRequest {
	return &EndGameRequest{
		PlayerID:         playerID,
		FinalHope:        &hope,
		FinalPapers:      &papers,
		GraduationStatus: status,
		IsWinner:         &winner,
		SlackOffCount:    &slackOff,
	}
}

func TestStartGameIdempotent(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	first, err := svc.StartGame(ctx, &StartGameRequest{PlayerID: "p1"}, "192.168.1.5")
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	second, err := svc.StartGame(ctx, &StartGameRequest{PlayerID: "p1"}, "192.168.1.5")
	if err != nil {
		t.Fatalf("second start: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same session on restart, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
	if len(repo.sessions) != 1 {
		t.Errorf("expected 1 stored session, got %d", len(repo.sessions))
	}
}

func TestStartGameDerivesMetadata(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(repo, nil)

	session, err := svc.StartGame(context.Background(), &StartGameRequest{
		PlayerID:         "p1",
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ScreenResolution: "1920 X 1080",
		Language:         "en-US",
	}, "8.8.8.8")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if session.DeviceType == nil || *session.DeviceType != "desktop" {
		t.Errorf("device type = %v, want desktop", session.DeviceType)
	}
	if session.ScreenResolution == nil || *session.ScreenResolution != "1920x1080" {
		t.Errorf("resolution = %v, want 1920x1080", session.ScreenResolution)
	}
	if session.Country == nil || *session.Country != "United States" {
		t.Errorf("country = %v, want United States", session.Country)
	}
	if session.IPAddress == nil || *session.IPAddress != "8.8.8.8" {
		t.Errorf("ip = %v, want 8.8.8.8", session.IPAddress)
	}
	if session.Timezone != nil {
		t.Errorf("timezone = %v, want nil for omitted input", session.Timezone)
	}
	if session.IsWinner {
		t.Error("win flag should default to false")
	}
	if session.SlackOffCount != 0 || session.TotalActions != 0 {
		t.Error("behavior counters should default to zero")
	}
}

func TestStartGameConcurrentDuplicate(t *testing.T) {
	winner := &Session{
		ID:        primitive.NewObjectID(),
		PlayerID:  "p1",
		StartTime: time.Now().UTC(),
		CreatedAt: time.Now().UTC(),
	}

	// Insert fails as if a racing request won; the service must fall back
	// to returning the winner's record.
	repo := &fakeRepository{insertErr: models.ErrDuplicateRecord}
	repo.sessions = append(repo.sessions, winner)
	svc := newTestService(repo, nil)

	session, err := svc.StartGame(context.Background(), &StartGameRequest{PlayerID: "p1"}, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.ID != winner.ID {
		t.Errorf("expected winner's session, got %s", session.ID.Hex())
	}
}

func TestEndGameComputesDuration(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Minute)

	repo := &fakeRepository{}
	now := start
	svc := newTestService(repo, func() time.Time { return now })

	if _, err := svc.StartGame(context.Background(), &StartGameRequest{PlayerID: "p1"}, ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	now = end
	session, err := svc.EndGame(context.Background(), endRequest("p1", 80, 3, 2, true, StatusGraduated))
	if err != nil {
		t.Fatalf("end: %v", err)
	}

	if session.GameDuration == nil {
		t.Fatal("duration not set")
	}
	if math.Abs(*session.GameDuration-42) > 1e-9 {
		t.Errorf("duration = %f, want 42", *session.GameDuration)
	}
	if session.EndTime == nil || !session.EndTime.Equal(end) {
		t.Errorf("end time = %v, want %v", session.EndTime, end)
	}
	if session.FinalHope == nil || *session.FinalHope != 80 {
		t.Errorf("final hope = %v, want 80", session.FinalHope)
	}
	if !session.IsWinner {
		t.Error("win flag not stored")
	}
}

func TestEndGameWithoutStart(t *testing.T) {
	svc := newTestService(&fakeRepository{}, nil)

	_, err := svc.EndGame(context.Background(), endRequest("ghost", 0, 0, 0, false, StatusDroppedOut))
	if err != models.ErrNoActiveGame {
		t.Errorf("expected ErrNoActiveGame, got %v", err)
	}
}

// Ending twice is deliberately not idempotent: the second call finds no
// open session and fails with not-found.
func TestEndGameTwice(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	if _, err := svc.StartGame(ctx, &StartGameRequest{PlayerID: "p1"}, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.EndGame(ctx, endRequest("p1", 10, 1, 0, false, StatusDroppedOut)); err != nil {
		t.Fatalf("first end: %v", err)
	}

	_, err := svc.EndGame(ctx, endRequest("p1", 10, 1, 0, false, StatusDroppedOut))
	if err != models.ErrNoActiveGame {
		t.Errorf("second end: expected ErrNoActiveGame, got %v", err)
	}
}

func TestGetStatsRounding(t *testing.T) {
	repo := &fakeRepository{stats: &models.Stats{
		TotalPlayers:    3,
		TotalGames:      4,
		AverageHope:     66.66666,
		AveragePapers:   1.005,
		AverageDuration: 12.344,
	}}
	svc := newTestService(repo, nil)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.AverageHope != 66.67 {
		t.Errorf("average hope = %v, want 66.67", stats.AverageHope)
	}
	if stats.AverageDuration != 12.34 {
		t.Errorf("average duration = %v, want 12.34", stats.AverageDuration)
	}
}

func TestGetStatsEmpty(t *testing.T) {
	svc := newTestService(&fakeRepository{}, nil)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.AverageHope != 0 || stats.AveragePapers != 0 || stats.AverageDuration != 0 {
		t.Errorf("averages over no records should be 0, got %+v", stats)
	}
}

func TestGetLeaderboard(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	hopes := []int{40, 90, 70}
	for i, hope := range hopes {
		playerID := string(rune('a' + i))
		if _, err := svc.StartGame(ctx, &StartGameRequest{PlayerID: playerID}, ""); err != nil {
			t.Fatalf("start %s: %v", playerID, err)
		}
		slackOff := 0
		if i == 1 {
			slackOff = 15
		}
		if _, err := svc.EndGame(ctx, endRequest(playerID, hope, i, slackOff, false, StatusGraduated)); err != nil {
			t.Fatalf("end %s: %v", playerID, err)
		}
	}

	// One open session with no outcome must not appear anywhere.
	if _, err := svc.StartGame(ctx, &StartGameRequest{PlayerID: "open"}, ""); err != nil {
		t.Fatalf("start open: %v", err)
	}

	board, err := svc.GetLeaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}

	if len(board.TopHope) != 3 {
		t.Fatalf("top hope length = %d, want 3", len(board.TopHope))
	}
	for i := 1; i < len(board.TopHope); i++ {
		if board.TopHope[i].FinalHope > board.TopHope[i-1].FinalHope {
			t.Error("top hope not sorted descending")
		}
	}
	if board.TopHope[0].FinalHope != 90 {
		t.Errorf("top hope leader = %d, want 90", board.TopHope[0].FinalHope)
	}

	if len(board.SlackOffMasters) != 1 {
		t.Fatalf("slack-off masters length = %d, want 1", len(board.SlackOffMasters))
	}
	if board.SlackOffMasters[0].SlackOffCount != 15 {
		t.Errorf("slack-off count = %d, want 15", board.SlackOffMasters[0].SlackOffCount)
	}
}

func TestListPlayersClamping(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		page     int
		size     int
		wantPage int
		wantSize int
	}{
		{"page zero becomes one", 0, 20, 1, 20},
		{"negative page becomes one", -3, 20, 1, 20},
		{"size above max clamps", 1, 500, 1, 100},
		{"size zero becomes default", 1, 0, 1, 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := svc.ListPlayers(ctx, &PlayerListRequest{Page: tc.page, Size: tc.size})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if resp.Page != tc.wantPage {
				t.Errorf("page = %d, want %d", resp.Page, tc.wantPage)
			}
			if resp.Size != tc.wantSize {
				t.Errorf("size = %d, want %d", resp.Size, tc.wantSize)
			}
		})
	}
}

func TestListPlayersTotalPages(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	for i := 0; i < 45; i++ {
		playerID := "p" + string(rune('0'+i/10)) + string(rune('0'+i%10))
		if _, err := svc.StartGame(ctx, &StartGameRequest{PlayerID: playerID}, ""); err != nil {
			t.Fatalf("start %s: %v", playerID, err)
		}
	}

	resp, err := svc.ListPlayers(ctx, &PlayerListRequest{Page: 1, Size: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if resp.TotalCount != 45 {
		t.Errorf("total count = %d, want 45", resp.TotalCount)
	}
	if resp.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", resp.TotalPages)
	}
	if len(resp.Players) != 20 {
		t.Errorf("players length = %d, want 20", len(resp.Players))
	}
}
