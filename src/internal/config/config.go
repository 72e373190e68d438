package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logs       LogsSettings       `mapstructure:"logs"`
	App        Application        `mapstructure:"app"`
	Database   Database           `mapstructure:"database"`
	Queue      QueueConfig        `mapstructure:"queue"`
	Redis      Redis              `mapstructure:"redis"`
	Server     ServerSettings     `mapstructure:"server"`
	Pagination PaginationSettings `mapstructure:"pagination"`
	Cache      CacheConfig        `mapstructure:"cache"`
	Static     StaticSettings     `mapstructure:"static"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
}

type Database struct {
	Url            string `mapstructure:"url"`
	DbName         string `mapstructure:"dbname"`
	GameCollection string `mapstructure:"game-collection"`
	Timeout        int    `mapstructure:"timeout"`
}

type PaginationSettings struct {
	DefaultSize int `mapstructure:"default-size"`
	MaxSize     int `mapstructure:"max-size"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type CacheConfig struct {
	StatsKey                     string `mapstructure:"stats-key"`
	LeaderboardKey               string `mapstructure:"leaderboard-key"`
	StatsExpirationMinutes       int    `mapstructure:"stats-expiration-minutes"`
	LeaderboardExpirationMinutes int    `mapstructure:"leaderboard-expiration-minutes"`
}

type StaticSettings struct {
	Dir   string `mapstructure:"dir"`
	Index string `mapstructure:"index"`
}

func Load() *Configuration {
	cfg := read()
	logrus.Info("Configuration loaded")

	// Override with environment variables
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	port := os.Getenv("PORT")
	if port != "" {
		cfg.Server.Port = port
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir != "" {
		cfg.Static.Dir = staticDir
	}

	return cfg
}

func read() *Configuration {
	viper.SetConfigFile("src/internal/config/cfg.yml")
	viper.AutomaticEnv()
	viper.SetConfigType("yml")

	var config Configuration

	err := viper.ReadInConfig()
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Panicf("Error unmarshalling config file, %s", err)
	}

	return &config
}
