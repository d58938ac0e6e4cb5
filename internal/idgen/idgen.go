// Package idgen produces short, URL-safe identifiers. User IDs are
// base58-encoded values of a database sequence so they stay compact but never
// collide; item and repair IDs are random.
package idgen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// base58 alphabet, excludes confusable characters (0, O, I, l).
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// random-ID alphabet additionally drops 1 to avoid 1/l confusion in print.
const randomAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz"

// EncodeNumber encodes n in base58.
func EncodeNumber(n uint64) string {
	if n == 0 {
		return string(base58Alphabet[0])
	}
	base := uint64(len(base58Alphabet))
	var sb []byte
	for n > 0 {
		sb = append(sb, base58Alphabet[n%base])
		n /= base
	}
	for i, j := 0, len(sb)-1; i < j; i, j = i+1, j-1 {
		sb[i], sb[j] = sb[j], sb[i]
	}
	return string(sb)
}

// DecodeNumber reverses EncodeNumber.
func DecodeNumber(encoded string) (uint64, error) {
	var n uint64
	base := uint64(len(base58Alphabet))
	for _, c := range encoded {
		idx := strings.IndexRune(base58Alphabet, c)
		if idx < 0 {
			return 0, fmt.Errorf("invalid base58 character %q", c)
		}
		n = n*base + uint64(idx)
	}
	return n, nil
}

// RandomID returns a random identifier of the given length (max 12).
func RandomID(length int) (string, error) {
	if length > 12 {
		return "", errors.New("id length must be 12 or less")
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = randomAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// Generator issues sequential encoded user IDs backed by a Postgres sequence.
type Generator struct {
	pool *pgxpool.Pool
}

// NewGenerator constructs a Generator.
func NewGenerator(pool *pgxpool.Pool) *Generator {
	return &Generator{pool: pool}
}

// NextUserID returns the next encoded sequential user ID, left-padded to a
// minimum of 4 characters.
func (g *Generator) NextUserID(ctx context.Context) (string, error) {
	if g.pool == nil {
		return "", errors.New("id generator has no database pool")
	}
	var next int64
	if err := g.pool.QueryRow(ctx, `SELECT nextval('user_id_seq')`).Scan(&next); err != nil {
		return "", err
	}
	id := EncodeNumber(uint64(next))
	for len(id) < 4 {
		id = string(base58Alphabet[0]) + id
	}
	return id, nil
}
