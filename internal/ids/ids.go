// Package ids generates the random identifiers used for lobbies, images and
// join codes.
package ids

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/petermazzocco/photo-lobby/internal/apperr"
)

const (
	// EntityLength is the length of lobby and image ids.
	EntityLength = 12
	// JoinCodeLength is the length of a lobby join code.
	JoinCodeLength = 6
	// MaxAttempts bounds every collision retry loop.
	MaxAttempts = 8

	entityAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// No 0/O or 1/I/L: codes are read aloud and typed by hand.
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// New returns a random id of the given length over [a-z0-9].
func New(length int) string {
	return random(entityAlphabet, length)
}

// NewJoinCode returns a random join code.
func NewJoinCode() string {
	return random(codeAlphabet, JoinCodeLength)
}

func random(alphabet string, length int) string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is gone.
			panic(fmt.Sprintf("ids: reading random source: %v", err))
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}

// Generate draws ids of the given length until exists reports one as free.
func Generate(ctx context.Context, length int, exists func(ctx context.Context, id string) (bool, error)) (string, error) {
	for i := 0; i < MaxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := New(length)
		taken, err := exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no free id after %d attempts", apperr.ErrResourceExhausted, MaxAttempts)
}

// Retry runs create until it succeeds, fails with an error conflict does not
// recognise, or MaxAttempts is reached. create is expected to draw fresh ids
// on every call.
func Retry(ctx context.Context, conflict func(error) bool, create func() error) error {
	for i := 0; i < MaxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := create()
		if err == nil {
			return nil
		}
		if !conflict(err) {
			return err
		}
	}
	return fmt.Errorf("%w: unique key still taken after %d attempts", apperr.ErrResourceExhausted, MaxAttempts)
}
