package models

import (
	"context"
)

type IDGenerator interface {
	ID() (string, error)
}

type EntryGetter interface {
	GetEntry(ctx context.Context, entryID string) (ConnectionEntry, error)
}

type EntrySetter interface {
	SetEntry(ctx context.Context, entry ConnectionEntry) error
}

type EntryRemover interface {
	RemoveEntry(ctx context.Context, entryID string) error
}

// RefreshTokenSetter persists the listonic refresh token of a connection entry.
type RefreshTokenSetter interface {
	SetRefreshToken(ctx context.Context, entryID string, refreshToken string) error
}

// IdentityTokenSetter persists the identity provider token of a connection entry.
type IdentityTokenSetter interface {
	SetIdentityToken(ctx context.Context, entryID string, token IdentityToken) error
}

// EntryRepository represents the interface used to persist connection entries
type EntryRepository interface {
	EntryGetter
	EntrySetter
	EntryRemover
	RefreshTokenSetter
	IdentityTokenSetter
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event) error
}
