package s3up

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxKeyBytes = 1024

// PathContext is what a route's GenerateKey function receives (spec §4.I).
type PathContext struct {
	File        FileDescriptor
	Metadata    map[string]string
	GlobalPaths PathsConfig
	RouteName   string
}

// GenerateKeyFunc returns either a bare "tail" (the common case) or, as an
// escape hatch, an entire key that already embeds GlobalPaths.Prefix.
type GenerateKeyFunc func(ctx PathContext) string

// PathsConfig configures the global layer of the path engine.
type PathsConfig struct {
	Prefix      string
	GenerateKey GenerateKeyFunc
}

// RoutePaths overrides the global PathsConfig for one route.
type RoutePaths struct {
	Prefix      string
	GenerateKey GenerateKeyFunc
}

// composeKey implements finalKey = join(globalPrefix, routePrefix,
// routeGenerateKey ?? globalGenerateKey(file, metadata)) from spec §4.I,
// then enforces the forbidden-pattern and length rules.
func composeKey(global PathsConfig, route *RoutePaths, ctx PathContext) (string, *Error) {
	ctx.GlobalPaths = global

	var tail string
	switch {
	case route != nil && route.GenerateKey != nil:
		tail = route.GenerateKey(ctx)
	case global.GenerateKey != nil:
		tail = global.GenerateKey(ctx)
	default:
		tail = defaultTail(ctx)
	}

	// A route-level generator may return the entire key already, signaled
	// by it starting with the global prefix itself.
	if route != nil && route.GenerateKey != nil && global.Prefix != "" && strings.HasPrefix(tail, global.Prefix) {
		return validateKey(tail)
	}

	parts := make([]string, 0, 3)
	if global.Prefix != "" {
		parts = append(parts, strings.Trim(global.Prefix, "/"))
	}
	if route != nil && route.Prefix != "" {
		parts = append(parts, strings.Trim(route.Prefix, "/"))
	}
	parts = append(parts, tail)

	return validateKey(strings.Join(parts, "/"))
}

func validateKey(key string) (string, *Error) {
	if strings.HasPrefix(key, "/") {
		return "", newError(ErrValidationError, "key must not start with /")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", newError(ErrValidationError, "key must not contain .. segments")
		}
	}
	if len(key) > maxKeyBytes {
		return "", newError(ErrKeyTooLong, fmt.Sprintf("key exceeds %d bytes", maxKeyBytes))
	}
	return key, nil
}

// defaultTail builds "${userIdOrAnonymous}/${epochMs}/${6-char base36
// random}/${sanitizedName}" per spec §4.I.
func defaultTail(ctx PathContext) string {
	userID := "anonymous"
	if v, ok := ctx.Metadata["userId"]; ok && v != "" {
		userID = v
	}
	epochMs := nowFunc().UnixMilli()
	return fmt.Sprintf("%s/%d/%s/%s", userID, epochMs, randomBase36(6), sanitizeName(ctx.File.Name))
}

// nowFunc is a seam for tests; production always uses wall-clock time.
var nowFunc = time.Now

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36Alphabet))))
		if err != nil {
			// crypto/rand failure is unrecoverable; fall back to a
			// uuid-derived byte so key generation never panics mid-request.
			b[i] = base36Alphabet[int(uuid.New()[0])%len(base36Alphabet)]
			continue
		}
		b[i] = base36Alphabet[idx.Int64()]
	}
	return string(b)
}

// sanitizeName replaces anything outside [A-Za-z0-9._-] with "_".
func sanitizeName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
