// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package redis provides a Redis-backed reset token store.
//
// Each token lives in a hash at <prefix>:reset:<token_hash> with a native TTL
// of ExpiresAt plus the retention window. Expired tokens stay readable during
// retention so callers can tell an expired token from an unknown one. A set
// per user and a sorted set ordered by expiry back DeleteByUser and
// DeleteExpired. Expiry members are <token_hash>:<user_id> so the owner's set
// can be cleaned after the native TTL has dropped the token hash.
package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	red "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/passcode/internal/auth"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "passcode"

// DefaultRetention is how long an expired token stays readable.
const DefaultRetention = time.Hour

const (
	fieldID        = "id"
	fieldUserID    = "user_id"
	fieldExpiresAt = "expires_at"
	fieldCreatedAt = "created_at"
)

// ResetTokenRepository implements auth.ResetTokenRepository on Redis.
type ResetTokenRepository struct {
	client    red.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// Option configures a ResetTokenRepository.
type Option func(*ResetTokenRepository)

// WithRetention sets how long expired tokens remain readable. Zero drops them
// as soon as they expire.
func WithRetention(d time.Duration) Option {
	return func(r *ResetTokenRepository) {
		if d >= 0 {
			r.retention = d
		}
	}
}

// NewResetTokenRepository creates a store using client. An empty prefix falls
// back to DefaultPrefix.
func NewResetTokenRepository(client red.UniversalClient, prefix string, opts ...Option) *ResetTokenRepository {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	r := &ResetTokenRepository{
		client:    client,
		prefix:    prefix,
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores token. An existing entry for the same hash is reported as
// auth.ErrTokenCollision.
func (r *ResetTokenRepository) Create(ctx context.Context, token *auth.ResetToken) error {
	key := r.tokenKey(token.TokenHash)

	txf := func(tx *red.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err //nolint:wrapcheck // wrapped below
		}
		if n > 0 {
			return auth.ErrTokenCollision
		}
		_, err = tx.TxPipelined(ctx, func(pipe red.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]any{
				fieldID:        token.ID.String(),
				fieldUserID:    token.UserID,
				fieldExpiresAt: formatTime(token.ExpiresAt),
				fieldCreatedAt: formatTime(token.CreatedAt),
			})
			pipe.PExpireAt(ctx, key, token.ExpiresAt.Add(r.retention))
			pipe.SAdd(ctx, r.userKey(token.UserID), token.TokenHash)
			pipe.ZAdd(ctx, r.expiryKey(), red.Z{
				Score:  float64(token.ExpiresAt.UnixMilli()),
				Member: expiryMember(token.TokenHash, token.UserID),
			})
			return nil
		})
		return err //nolint:wrapcheck // wrapped below
	}

	err := r.client.Watch(ctx, txf, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrTokenCollision), errors.Is(err, red.TxFailedErr):
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "create reset token").
			Wrap(errors.Join(auth.ErrTokenCollision, err))
	default:
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "create reset token").
			Wrap(err)
	}
}

// GetByTokenHash retrieves a token by hash.
func (r *ResetTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.ResetToken, error) {
	values, err := r.client.HGetAll(ctx, r.tokenKey(tokenHash)).Result()
	if err != nil {
		return nil, oops.Code("RESET_QUERY_FAILED").
			With("operation", "get reset token").
			Wrap(err)
	}
	if len(values) == 0 {
		return nil, oops.Code("RESET_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return parseResetToken(tokenHash, values)
}

// DeleteByUser removes every token recorded for userID. Only the hashes read
// are removed from the user's set, so a token created concurrently stays
// indexed for the next call.
func (r *ResetTokenRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	userKey := r.userKey(userID)
	hashes, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, oops.Code("RESET_DELETE_BY_USER_FAILED").
			With("user_id", userID).
			Wrap(err)
	}
	if len(hashes) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(hashes))
	owned := make([]any, 0, len(hashes))
	expiring := make([]any, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, r.tokenKey(h))
		owned = append(owned, h)
		expiring = append(expiring, expiryMember(h, userID))
	}

	var deleted *red.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, r.expiryKey(), expiring...)
		pipe.SRem(ctx, userKey, owned...)
		return nil
	})
	if err != nil {
		return 0, oops.Code("RESET_DELETE_BY_USER_FAILED").
			With("user_id", userID).
			Wrap(err)
	}
	return deleted.Val(), nil
}

// DeleteExpired removes tokens whose expiry is at or before now, including
// ones still inside the retention window.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	cutoff := strconv.FormatInt(r.now().UnixMilli(), 10)
	members, err := r.client.ZRangeByScore(ctx, r.expiryKey(), &red.ZRangeBy{Min: "-inf", Max: cutoff}).Result()
	if err != nil {
		return 0, oops.Code("RESET_DELETE_EXPIRED_FAILED").
			With("operation", "list expired").
			Wrap(err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	var deleted int64
	for _, member := range members {
		h, userID := splitExpiryMember(member)

		var del *red.IntCmd
		_, err = r.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
			del = pipe.Del(ctx, r.tokenKey(h))
			pipe.ZRem(ctx, r.expiryKey(), member)
			if userID != "" {
				pipe.SRem(ctx, r.userKey(userID), h)
			}
			return nil
		})
		if err != nil {
			return deleted, oops.Code("RESET_DELETE_EXPIRED_FAILED").
				With("operation", "delete expired").
				Wrap(err)
		}
		deleted += del.Val()
	}
	return deleted, nil
}

func (r *ResetTokenRepository) tokenKey(tokenHash string) string {
	return r.prefix + ":reset:" + tokenHash
}

func (r *ResetTokenRepository) userKey(userID string) string {
	return r.prefix + ":reset:user:" + userID
}

func (r *ResetTokenRepository) expiryKey() string {
	return r.prefix + ":reset:expiry"
}

// expiryMember joins hash and owner. Token hashes are hex and never contain
// the separator.
func expiryMember(tokenHash, userID string) string {
	return tokenHash + ":" + userID
}

func splitExpiryMember(member string) (tokenHash, userID string) {
	tokenHash, userID, _ = strings.Cut(member, ":")
	return tokenHash, userID
}

func parseResetToken(tokenHash string, values map[string]string) (*auth.ResetToken, error) {
	id, err := ulid.Parse(values[fieldID])
	if err != nil {
		return nil, oops.Code("RESET_INVALID_ID").With("id", values[fieldID]).Wrap(err)
	}
	expiresAt, err := parseTime(values[fieldExpiresAt])
	if err != nil {
		return nil, oops.Code("RESET_SCAN_FAILED").With("field", fieldExpiresAt).Wrap(err)
	}
	createdAt, err := parseTime(values[fieldCreatedAt])
	if err != nil {
		return nil, oops.Code("RESET_SCAN_FAILED").With("field", fieldCreatedAt).Wrap(err)
	}
	return &auth.ResetToken{
		ID:        id,
		UserID:    values[fieldUserID],
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}, nil
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err //nolint:wrapcheck // wrapped by caller
	}
	return time.UnixMilli(ms).UTC(), nil
}

// Compile-time interface check.
var _ auth.ResetTokenRepository = (*ResetTokenRepository)(nil)
