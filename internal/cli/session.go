package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/session"
)

// Environment variables that protect stored sessions.
const (
	// EnvEncryptionKey holds a hex encoded AES-256 key. Extra keys, separated
	// by commas, are accepted for decryption only.
	EnvEncryptionKey = "LATTICE_ENCRYPTION_KEY"
	// EnvRedactKeys holds comma separated patterns of channel names whose
	// values are masked before saving.
	EnvRedactKeys = "LATTICE_REDACT_KEYS"
)

// openStore returns the session store for addr: Redis with a distributed
// lock when an address is given, process memory otherwise.
func openStore(ctx context.Context, addr string) (ports.StateStore, []session.Option, func() error, error) {
	mws, err := storeMiddleware()
	if err != nil {
		return nil, nil, nil, err
	}

	if addr == "" {
		return middleware.Chain(memory.NewStore(), mws...), nil, func() error { return nil }, nil
	}

	store := redis.New(addr, "", 0)
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	locker := redis.NewLocker(store.Client(), "lattice:")
	return middleware.Chain(store, mws...), []session.Option{session.WithLocker(locker)}, store.Close, nil
}

// OpenStore opens the session store used by the session commands.
func OpenStore(ctx context.Context, addr string) (ports.StateStore, func() error, error) {
	store, _, closeFn, err := openStore(ctx, addr)
	return store, closeFn, err
}

// storeMiddleware masks first, then encrypts.
func storeMiddleware() ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if patterns := splitList(os.Getenv(EnvRedactKeys)); len(patterns) > 0 {
		mw, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRedactKeys, err)
		}
		mws = append(mws, mw)
	}

	if keys := splitList(os.Getenv(EnvEncryptionKey)); len(keys) > 0 {
		decoded := make([][]byte, len(keys))
		for i, k := range keys {
			b, err := hex.DecodeString(k)
			if err != nil {
				return nil, fmt.Errorf("%s: key %d: %w", EnvEncryptionKey, i, err)
			}
			decoded[i] = b
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    decoded[0],
			FallbackKeys: decoded[1:],
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvEncryptionKey, err)
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
