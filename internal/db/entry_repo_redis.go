package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
)

const connectionEntryPrefix string = "connectionEntry"

func (RedisAdapter) entryKey(entryID string) string {
	return connectionEntryPrefix + ":" + entryID
}

// GetEntry reads a connection entry from redis
func (r RedisAdapter) GetEntry(ctx context.Context, entryID string) (models.ConnectionEntry, error) {
	output := models.ConnectionEntry{}
	raw, err := r.rdb.HGetAll(ctx, r.entryKey(entryID)).Result()
	if err != nil {
		return output, err
	}
	err = r.deserializeToStruct(raw, &output)
	if err != nil {
		if err == bridgeerrors.ErrMissingDBResource {
			err = bridgeerrors.ErrEntryNotFound
		}
		return models.ConnectionEntry{}, err
	}
	return output, nil
}

// SetEntry writes all the fields of a connection entry to redis
func (r RedisAdapter) SetEntry(ctx context.Context, entry models.ConnectionEntry) error {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	slog.Debug(
		"DB",
		"message",
		"saving connection entry",
		"entry",
		entry,
	)
	return r.rdb.HSet(ctx, r.entryKey(entry.ID), r.serializeStruct(entry)...).Err()
}

func (r RedisAdapter) RemoveEntry(ctx context.Context, entryID string) error {
	return r.rdb.Del(ctx, r.entryKey(entryID)).Err()
}

// SetRefreshToken only updates the listonic refresh token of the entry, the other fields are left as they are
func (r RedisAdapter) SetRefreshToken(ctx context.Context, entryID string, refreshToken string) error {
	slog.Debug("DB", "message", "saving listonic refresh token", "entryID", entryID)
	return r.rdb.HSet(
		ctx,
		r.entryKey(entryID),
		"ID", entryID,
		"RefreshToken", refreshToken,
		"UpdatedAt", r.now(),
	).Err()
}

// SetIdentityToken only updates the identity provider token fields of the entry
func (r RedisAdapter) SetIdentityToken(ctx context.Context, entryID string, token models.IdentityToken) error {
	slog.Debug(
		"DB",
		"message",
		"saving identity token",
		"entryID",
		entryID,
		"expiresAt",
		token.ExpiresAt,
	)
	expiresAt, err := token.ExpiresAt.MarshalText()
	if err != nil {
		return err
	}
	return r.rdb.HSet(
		ctx,
		r.entryKey(entryID),
		"ID", entryID,
		"IdentityAccessToken", token.AccessToken,
		"IdentityRefreshToken", token.RefreshToken,
		"IdentityTokenType", token.TokenType,
		"IdentityExpiresAt", string(expiresAt),
		"UpdatedAt", r.now(),
	).Err()
}

func (RedisAdapter) now() string {
	raw, _ := time.Now().UTC().MarshalText()
	return string(raw)
}
