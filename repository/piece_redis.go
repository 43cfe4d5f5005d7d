package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pecajuridica-backend/models"

	"github.com/redis/go-redis/v9"
)

// RedisPieceStore keeps pieces in Redis with an optional expiry
type RedisPieceStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisPieceStore connects to redisURL; a zero ttl keeps pieces forever
func NewRedisPieceStore(redisURL string, ttl time.Duration) (*RedisPieceStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisPieceStore{
		client: client,
		prefix: "piece:",
		ttl:    ttl,
	}, nil
}

func (s *RedisPieceStore) key(id string) string {
	return s.prefix + id
}

// Put stores the piece and refreshes its expiry
func (s *RedisPieceStore) Put(ctx context.Context, piece *models.Piece) error {
	data, err := json.Marshal(piece)
	if err != nil {
		return fmt.Errorf("marshal piece: %w", err)
	}
	if err := s.client.Set(ctx, s.key(piece.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save piece: %w", err)
	}
	return nil
}

// Get loads a piece; expired pieces are reported as not found
func (s *RedisPieceStore) Get(ctx context.Context, id string) (*models.Piece, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPieceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup piece: %w", err)
	}

	var piece models.Piece
	if err := json.Unmarshal(data, &piece); err != nil {
		return nil, fmt.Errorf("unmarshal piece: %w", err)
	}
	return &piece, nil
}

// Close closes the Redis connection
func (s *RedisPieceStore) Close() error {
	return s.client.Close()
}
