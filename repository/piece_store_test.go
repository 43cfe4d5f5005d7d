package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pecajuridica-backend/models"
)

func samplePiece() *models.Piece {
	ref := "https://planalto.gov.br/cf"
	client := "cliente-1"
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.Piece{
		ID:           "p-1",
		DocumentType: models.DocumentTypePetition,
		Text:         "### Dos Fatos\nTexto",
		Citations:    models.Citations{{Article: "Art. 5", Key: "art5", Confirmed: true, Reference: &ref}},
		ClientName:   "cliente-1",
		ClientID:     &client,
		Parties:      models.Parties{{Name: "Maria", Role: models.RoleClaimant}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMemoryPieceStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPieceStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrPieceNotFound)

	piece := samplePiece()
	require.NoError(t, store.Put(ctx, piece))

	got, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, piece, got)

	got.Text = "changed"
	*got.Citations[0].Reference = "changed"
	again, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "### Dos Fatos\nTexto", again.Text)
	assert.Equal(t, "https://planalto.gov.br/cf", *again.Citations[0].Reference)
}

func TestMemoryPieceStoreRequiresID(t *testing.T) {
	assert.Error(t, NewMemoryPieceStore().Put(context.Background(), &models.Piece{}))
}

func setupRedisStore(t *testing.T, ttl time.Duration) (*RedisPieceStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisPieceStore("redis://"+s.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestRedisPieceStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, s := setupRedisStore(t, 0)

	piece := samplePiece()
	require.NoError(t, store.Put(ctx, piece))
	assert.True(t, s.Exists("piece:p-1"))

	got, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, piece.Text, got.Text)
	assert.Equal(t, piece.Citations, got.Citations)
	assert.Equal(t, piece.Parties, got.Parties)
	assert.True(t, piece.CreatedAt.Equal(got.CreatedAt))
}

func TestRedisPieceStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, s := setupRedisStore(t, time.Hour)

	require.NoError(t, store.Put(ctx, samplePiece()))
	assert.Equal(t, time.Hour, s.TTL("piece:p-1"))

	s.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "p-1")
	assert.ErrorIs(t, err, ErrPieceNotFound)
}

func TestRedisPieceStoreBadURL(t *testing.T) {
	_, err := NewRedisPieceStore("not-a-url", 0)
	assert.Error(t, err)
}
