package clients

import (
	"context"
	"phdsim-telemetry-svc/src/internal/config"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var log = logrus.StandardLogger()

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	cfg      *config.Database
}

func NewMongoDB(cfg *config.Database) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	log.WithField("url", cfg.Url).Info("Connecting to MongoDB...")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Url))
	if err != nil {
		log.WithError(err).Error("Failed to connect to MongoDB")
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.WithError(err).Error("Failed to ping MongoDB")
		return nil, err
	}

	log.Infof("Connected to MongoDB database %s", cfg.DbName)

	return &MongoDB{
		Client:   client,
		Database: client.Database(cfg.DbName),
		cfg:      cfg,
	}, nil
}

// EnsureIndexes creates the indexes the game collection relies on. The
// partial unique index on player_id guarantees at most one open session
// per player even when two start requests race.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	collection := m.Database.Collection(m.cfg.GameCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "player_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_open_session_per_player").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"end_time": bson.M{"$type": "null"}}),
		},
		{
			Keys:    bson.D{{Key: "player_id", Value: 1}},
			Options: options.Index().SetName("player_id_lookup"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.WithError(err).Error("Failed to create game collection indexes")
		return err
	}

	log.WithField("collection", m.cfg.GameCollection).Info("Game collection indexes ensured")
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	if err := m.Client.Disconnect(ctx); err != nil {
		log.WithError(err).Error("Failed to disconnect from MongoDB")
		return err
	}
	log.Info("MongoDB connection closed")
	return nil
}
