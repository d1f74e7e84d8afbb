package emailtoken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"attest/internal/verification/models"
	"attest/pkg/platform/sentinel"
)

// Redis stores email tokens keyed by token value with the token TTL.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func tokenKey(token string) string {
	return "verification:emailtoken:" + token
}

func (s *Redis) Put(ctx context.Context, token models.EmailToken) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal email token: %w", err)
	}
	if err := s.client.Set(ctx, tokenKey(token.Token), payload, models.EmailTokenTTL).Err(); err != nil {
		return fmt.Errorf("store email token: %w", err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, token string) (*models.EmailToken, error) {
	payload, err := s.client.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load email token: %w", err)
	}

	var t models.EmailToken
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("decode email token: %w", err)
	}
	return &t, nil
}
