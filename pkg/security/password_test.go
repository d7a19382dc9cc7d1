package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/friotec/fieldservice-backend/pkg/config"
	"github.com/friotec/fieldservice-backend/pkg/security"
)

var cheap = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("technician-pass", cheap)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)

	ok, err := security.VerifyPassword("technician-pass", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = security.VerifyPassword("Technician-pass", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyUsesParamsFromHash(t *testing.T) {
	hash, err := security.HashPassword("rotating", cheap)
	require.NoError(t, err)

	// Raising the configured cost must not invalidate existing hashes.
	stronger := cheap
	stronger.ArgonTime = 3
	_, err = security.HashPassword("other", stronger)
	require.NoError(t, err)

	ok, err := security.VerifyPassword("rotating", hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$",
	} {
		_, err := security.VerifyPassword("irrelevant", encoded)
		require.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestParamsFromConfigClamps(t *testing.T) {
	p := security.ParamsFromConfig(config.PasswordConfig{})
	require.EqualValues(t, 8, p.Memory)
	require.EqualValues(t, 1, p.Time)
	require.EqualValues(t, 1, p.Parallelism)
	require.EqualValues(t, 8, p.SaltLen)
	require.EqualValues(t, 16, p.KeyLen)

	p = security.ParamsFromConfig(config.PasswordConfig{ArgonTime: 99, ArgonParallelism: 1000, ArgonKeyLen: 128})
	require.EqualValues(t, 10, p.Time)
	require.EqualValues(t, 255, p.Parallelism)
	require.EqualValues(t, 64, p.KeyLen)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", cheap)
	require.Error(t, err)
}
