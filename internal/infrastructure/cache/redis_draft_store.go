package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "personalizer:draft:"

// RedisDraftStore keeps drafts in one hash per session and product,
// with one field per area. The hash expires ttl after the last save.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore creates a draft store on an existing client
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

func draftKey(sessionID string, productID uuid.UUID) string {
	return draftKeyPrefix + sessionID + ":" + productID.String()
}

// SaveDraft stores the design of one area
func (s *RedisDraftStore) SaveDraft(ctx context.Context, sessionID string, productID uuid.UUID, areaKey string, draft personalization.Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	key := draftKey(sessionID, productID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, areaKey, payload)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// LoadDrafts returns the drafts of a product keyed by area.
// Fields that no longer decode are skipped.
func (s *RedisDraftStore) LoadDrafts(ctx context.Context, sessionID string, productID uuid.UUID) (map[string]personalization.Draft, error) {
	fields, err := s.client.HGetAll(ctx, draftKey(sessionID, productID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}

	drafts := make(map[string]personalization.Draft, len(fields))
	for area, raw := range fields {
		var d personalization.Draft
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			continue
		}
		drafts[area] = d
	}
	return drafts, nil
}

// ClearDrafts forgets the drafts of a product
func (s *RedisDraftStore) ClearDrafts(ctx context.Context, sessionID string, productID uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(sessionID, productID)).Err(); err != nil {
		return fmt.Errorf("failed to clear drafts: %w", err)
	}
	return nil
}

var _ personalization.DraftStore = (*RedisDraftStore)(nil)
