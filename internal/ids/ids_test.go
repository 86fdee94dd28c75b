package ids

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id := New(EntityLength)
	assert.Len(t, id, EntityLength)
	for _, c := range id {
		assert.True(t, strings.ContainsRune(entityAlphabet, c), "unexpected rune %q", c)
	}
	assert.NotEqual(t, New(EntityLength), New(EntityLength))
}

func TestNewJoinCode(t *testing.T) {
	code := NewJoinCode()
	assert.Len(t, code, JoinCodeLength)
	assert.NotContains(t, code, "0")
	assert.NotContains(t, code, "O")
	assert.NotContains(t, code, "1")
}

func TestGenerateSkipsTakenIDs(t *testing.T) {
	calls := 0
	id, err := Generate(context.Background(), 4, func(_ context.Context, id string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.Len(t, id, 4)
	assert.Equal(t, 3, calls)
}

func TestGenerateExhausted(t *testing.T) {
	_, err := Generate(context.Background(), 4, func(context.Context, string) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, apperr.ErrResourceExhausted)
}

func TestGeneratePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Generate(context.Background(), 4, func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRetry(t *testing.T) {
	dup := errors.New("duplicate")
	isDup := func(err error) bool { return errors.Is(err, dup) }

	calls := 0
	err := Retry(context.Background(), isDup, func() error {
		calls++
		if calls == 1 {
			return dup
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	other := errors.New("other")
	err = Retry(context.Background(), isDup, func() error { return other })
	assert.ErrorIs(t, err, other)

	err = Retry(context.Background(), isDup, func() error { return dup })
	assert.ErrorIs(t, err, apperr.ErrResourceExhausted)
}
