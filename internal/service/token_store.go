package service

import (
	"context"
	"fmt"
	"time"

	"doctor-appointment-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// TokenStore tracks issued tokens in Redis. A token is accepted only while its key exists,
// which makes logout and password changes effective before the JWT expires.
type TokenStore interface {
	Store(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType, ttl time.Duration) error
	Exists(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) (bool, error)
	Revoke(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

type tokenStore struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewTokenStore(redisClient *redis.Client, log *logrus.Logger) TokenStore {
	return &tokenStore{redisClient: redisClient, log: log}
}

func (s *tokenStore) Store(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType, ttl time.Duration) error {
	if err := s.redisClient.Set(ctx, TokenKey(userID, tokenID, tokenType), "valid", ttl).Err(); err != nil {
		s.log.Warnf("Failed to store %s token in Redis: %+v", tokenType, err)
		return err
	}
	return nil
}

func (s *tokenStore) Exists(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) (bool, error) {
	n, err := s.redisClient.Exists(ctx, TokenKey(userID, tokenID, tokenType)).Result()
	if err != nil {
		s.log.Warnf("Failed to check token validity: %+v", err)
		return false, err
	}
	return n > 0, nil
}

func (s *tokenStore) Revoke(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) error {
	if err := s.redisClient.Del(ctx, TokenKey(userID, tokenID, tokenType)).Err(); err != nil {
		s.log.Warnf("Failed to delete %s token: %+v", tokenType, err)
		return err
	}
	return nil
}

// RevokeAll deletes every access and refresh token of the user.
func (s *tokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	for _, tokenType := range []jwt.TokenType{jwt.AccessToken, jwt.RefreshToken} {
		pattern := fmt.Sprintf("%s_token:%s:*", tokenType, userID)
		iter := s.redisClient.Scan(ctx, 0, pattern, 100).Iterator()

		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			s.log.Warnf("Failed to scan %s tokens: %+v", tokenType, err)
			return err
		}
		if len(keys) == 0 {
			continue
		}
		if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
			s.log.Warnf("Failed to delete %s tokens: %+v", tokenType, err)
			return err
		}
	}
	return nil
}

// TokenKey is "access_token:{userID}:{tokenID}" or "refresh_token:{userID}:{tokenID}".
func TokenKey(userID uuid.UUID, tokenID string, tokenType jwt.TokenType) string {
	return fmt.Sprintf("%s_token:%s:%s", tokenType, userID, tokenID)
}
