package game

import (
	"context"
	"errors"
	"phdsim-telemetry-svc/src/clients"
	"phdsim-telemetry-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, session *Session) (*Session, error)
	FindOpenByPlayerID(ctx context.Context, playerID string) (*Session, error)
	FindLatestByPlayerID(ctx context.Context, playerID string) (*Session, error)
	CloseOpenSession(ctx context.Context, playerID string, outcome *SessionOutcome) (*Session, error)
	GetStats(ctx context.Context) (*models.Stats, error)
	TopByHope(ctx context.Context, limit int) ([]*Session, error)
	TopByPapers(ctx context.Context, limit int) ([]*Session, error)
	TopBySlackOff(ctx context.Context, limit int) ([]*Session, error)
	List(ctx context.Context, page, size int) ([]*Session, int64, error)
}

// SessionOutcome is the set of fields written when an open session closes.
type SessionOutcome struct {
	EndTime           time.Time
	GameDuration      float64
	FinalHope         int
	FinalPapers       int
	GraduationStatus  string
	IsWinner          bool
	SlackOffCount     int
	TotalActions      int
	ReadPaperActions  int
	WorkActions       int
	SlackOffActions   int
	ConferenceActions int
}

type gameRepository struct {
	collection *mongo.Collection
}

func NewGameRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	collection := mongoClient.Database.Collection(collectionName)
	return &gameRepository{
		collection: collection,
	}
}

func (r *gameRepository) Insert(ctx context.Context, session *Session) (*Session, error) {
	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicateRecord
		}
		logrus.WithError(err).WithField("player_id", session.PlayerID).Error("Failed to insert game session")
		return nil, models.ErrGameInserting
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid
	}

	return session, nil
}

func (r *gameRepository) FindOpenByPlayerID(ctx context.Context, playerID string) (*Session, error) {
	filter := bson.M{
		"player_id": playerID,
		"end_time":  nil,
	}

	var session Session
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoActiveGame
		}
		logrus.WithError(err).WithField("player_id", playerID).Error("Failed to find open game session")
		return nil, models.ErrDatabaseQuery
	}

	return &session, nil
}

func (r *gameRepository) FindLatestByPlayerID(ctx context.Context, playerID string) (*Session, error) {
	filter := bson.M{"player_id": playerID}
	opts := options.FindOne().SetSort(bson.M{"created_at": -1})

	var session Session
	err := r.collection.FindOne(ctx, filter, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrGameNotFound
		}
		logrus.WithError(err).WithField("player_id", playerID).Error("Failed to find game session")
		return nil, models.ErrDatabaseQuery
	}

	return &session, nil
}

// CloseOpenSession atomically ends the player's open session. The filter on
// a null end_time makes a second end call miss and report no active game.
func (r *gameRepository) CloseOpenSession(ctx context.Context, playerID string, outcome *SessionOutcome) (*Session, error) {
	filter := bson.M{
		"player_id": playerID,
		"end_time":  nil,
	}

	update := bson.M{
		"$set": bson.M{
			"end_time":           outcome.EndTime,
			"game_duration":      outcome.GameDuration,
			"final_hope":         outcome.FinalHope,
			"final_papers":       outcome.FinalPapers,
			"graduation_status":  outcome.GraduationStatus,
			"is_winner":          outcome.IsWinner,
			"slack_off_count":    outcome.SlackOffCount,
			"total_actions":      outcome.TotalActions,
			"read_paper_actions": outcome.ReadPaperActions,
			"work_actions":       outcome.WorkActions,
			"slack_off_actions":  outcome.SlackOffActions,
			"conference_actions": outcome.ConferenceActions,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session Session
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoActiveGame
		}
		logrus.WithError(err).WithField("player_id", playerID).Error("Failed to close game session")
		return nil, models.ErrGameUpdating
	}

	return &session, nil
}

func (r *gameRepository) GetStats(ctx context.Context) (*models.Stats, error) {
	totalPlayers, err := r.countDistinctPlayers(ctx)
	if err != nil {
		return nil, err
	}

	totalGames, err := r.countSessions(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	winners, err := r.countSessions(ctx, bson.M{"is_winner": true})
	if err != nil {
		return nil, err
	}

	dropouts, err := r.countSessions(ctx, bson.M{"graduation_status": StatusDroppedOut})
	if err != nil {
		return nil, err
	}

	slackOffMasters, err := r.countSessions(ctx, bson.M{
		"slack_off_count": bson.M{"$gte": SlackOffMasterThreshold},
	})
	if err != nil {
		return nil, err
	}

	avgHope, avgPapers, avgDuration, err := r.averages(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		TotalPlayers:    totalPlayers,
		TotalGames:      totalGames,
		WinnersCount:    winners,
		DropoutCount:    dropouts,
		AverageHope:     avgHope,
		AveragePapers:   avgPapers,
		AverageDuration: avgDuration,
		SlackOffMasters: slackOffMasters,
	}, nil
}

func (r *gameRepository) countSessions(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count game sessions")
		return 0, models.ErrDatabaseQuery
	}
	return count, nil
}

func (r *gameRepository) countDistinctPlayers(ctx context.Context) (int64, error) {
	players, err := r.collection.Distinct(ctx, "player_id", bson.M{})
	if err != nil {
		logrus.WithError(err).Error("Failed to count distinct players")
		return 0, models.ErrDatabaseQuery
	}
	return int64(len(players)), nil
}

// averages computes the mean hope, papers and duration in one pipeline.
// $avg skips null and missing values, which matches the non-null-only
// semantics of the stats endpoint.
func (r *gameRepository) averages(ctx context.Context) (hope, papers, duration float64, err error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"avg_hope":     bson.M{"$avg": "$final_hope"},
			"avg_papers":   bson.M{"$avg": "$final_papers"},
			"avg_duration": bson.M{"$avg": "$game_duration"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		logrus.WithError(err).Error("Failed to aggregate game averages")
		return 0, 0, 0, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var result struct {
		AvgHope     *float64 `bson:"avg_hope"`
		AvgPapers   *float64 `bson:"avg_papers"`
		AvgDuration *float64 `bson:"avg_duration"`
	}

	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			logrus.WithError(err).Error("Failed to decode game averages")
			return 0, 0, 0, models.ErrDatabaseQuery
		}
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return 0, 0, 0, models.ErrDatabaseQuery
	}

	if result.AvgHope != nil {
		hope = *result.AvgHope
	}
	if result.AvgPapers != nil {
		papers = *result.AvgPapers
	}
	if result.AvgDuration != nil {
		duration = *result.AvgDuration
	}

	return hope, papers, duration, nil
}

func (r *gameRepository) TopByHope(ctx context.Context, limit int) ([]*Session, error) {
	filter := bson.M{"final_hope": bson.M{"$ne": nil}}
	return r.findSorted(ctx, filter, bson.M{"final_hope": -1}, limit)
}

func (r *gameRepository) TopByPapers(ctx context.Context, limit int) ([]*Session, error) {
	filter := bson.M{"final_papers": bson.M{"$ne": nil}}
	return r.findSorted(ctx, filter, bson.M{"final_papers": -1}, limit)
}

func (r *gameRepository) TopBySlackOff(ctx context.Context, limit int) ([]*Session, error) {
	filter := bson.M{"slack_off_count": bson.M{"$gte": SlackOffMasterThreshold}}
	return r.findSorted(ctx, filter, bson.M{"slack_off_count": -1}, limit)
}

func (r *gameRepository) findSorted(ctx context.Context, filter, sort bson.M, limit int) ([]*Session, error) {
	opts := options.Find().
		SetSort(sort).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find game sessions")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	return decodeSessions(ctx, cursor)
}

func (r *gameRepository) List(ctx context.Context, page, size int) ([]*Session, int64, error) {
	totalCount, err := r.countDistinctPlayers(ctx)
	if err != nil {
		return nil, 0, err
	}

	skip := (page - 1) * size

	opts := options.Find().
		SetLimit(int64(size)).
		SetSkip(int64(skip)).
		SetSort(bson.M{"created_at": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to list game sessions")
		return nil, 0, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	sessions, err := decodeSessions(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	logrus.WithFields(logrus.Fields{
		"count": len(sessions),
		"total": totalCount,
		"page":  page,
		"size":  size,
	}).Debug("Listed game sessions")

	return sessions, totalCount, nil
}

func decodeSessions(ctx context.Context, cursor *mongo.Cursor) ([]*Session, error) {
	var sessions []*Session
	for cursor.Next(ctx) {
		var session Session
		if err := cursor.Decode(&session); err != nil {
			logrus.WithError(err).Error("Failed to decode game session")
			continue
		}
		sessions = append(sessions, &session)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return sessions, nil
}
