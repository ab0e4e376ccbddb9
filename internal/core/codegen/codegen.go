// Package codegen mints short, human-enterable codes and retries draws that
// collide within the caller's uniqueness scope.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is uppercase alphanumerics without 0/O, 1/I/L.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var ErrExhausted = errors.New("codegen: no free code found")

// ExistsFunc reports whether code is already taken in the caller's scope.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

type Generator struct {
	alphabet    string
	maxAttempts int
}

func New(alphabet string, maxAttempts int) *Generator {
	if alphabet == "" {
		alphabet = Alphabet
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Generator{alphabet: strings.ToUpper(alphabet), maxAttempts: maxAttempts}
}

// Generate draws one candidate. It has no side effects.
func (g *Generator) Generate(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("codegen: invalid length %d", length)
	}
	code, err := gonanoid.Generate(g.alphabet, length)
	if err != nil {
		return "", fmt.Errorf("codegen: %w", err)
	}
	return code, nil
}

// Unique draws until exists reports a free code. Uniqueness at write time is
// still the caller's job.
func (g *Generator) Unique(ctx context.Context, length int, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := g.Generate(length)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("codegen: uniqueness check: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Normalize prepares user-entered input for lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
