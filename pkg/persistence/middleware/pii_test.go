package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"password", "ssn"})
	require.NoError(t, err)
	store := mw(underlying)

	cp := domain.NewCheckpoint("pii")
	cp.Values["username"] = "jdoe"
	cp.Values["user_password"] = "secret123"
	cp.Values["details"] = map[string]any{
		"address":    "123 St",
		"ssn_number": "999-99-9999",
	}
	require.NoError(t, store.Save(ctx, "pii", cp))

	assert.Equal(t, "secret123", cp.Values["user_password"], "caller's checkpoint is untouched")

	stored, err := store.Load(ctx, "pii")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", stored.Values["username"])
	assert.Equal(t, middleware.Mask, stored.Values["user_password"])
	details := stored.Values["details"].(map[string]any)
	assert.Equal(t, middleware.Mask, details["ssn_number"])
	assert.Equal(t, "123 St", details["address"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.ErrorContains(t, err, `pii pattern "("`)
}

func TestChain_MasksBeforeEncrypting(t *testing.T) {
	ctx := context.Background()
	pii, err := middleware.NewPIIMiddleware([]string{"token"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(memory.NewStore(), pii, enc)
	cp := domain.NewCheckpoint("chain")
	cp.Values["token"] = "abc"
	cp.Values["topic"] = "otters"
	require.NoError(t, store.Save(ctx, "chain", cp))

	loaded, err := store.Load(ctx, "chain")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Values["token"])
	assert.Equal(t, "otters", loaded.Values["topic"])
}
