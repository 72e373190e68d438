package models

import "errors"

var (
	ErrRedisGet = errors.New("redis get error")
	ErrRedisSet = errors.New("redis set error")
	ErrRedisDel = errors.New("redis delete error")
)

var (
	ErrNoActiveGame  = errors.New("no active game session for player")
	ErrGameNotFound  = errors.New("game session not found")
	ErrGameInserting = errors.New("error inserting game session")
	ErrGameUpdating  = errors.New("error updating game session")
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDuplicateRecord    = errors.New("duplicate record")
)
