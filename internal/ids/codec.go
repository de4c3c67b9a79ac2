package ids

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/speps/go-hashids/v2"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// Encoding parameters shared with the destination.
const (
	Salt      = "beaverlog"
	MinLength = 20
	Alphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"
)

// maxValue is the largest value an id can carry (128 bits).
var maxValue = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Codec is a keyed reversible encoding of 128-bit values. The zero value is
// encoded as types.EmptyID.
type Codec struct {
	h *hashids.HashID
}

// NewCodec returns a Codec using the destination's encoding parameters.
func NewCodec() (*Codec, error) {
	data := hashids.NewData()
	data.Salt = Salt
	data.MinLength = MinLength
	data.Alphabet = Alphabet
	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("creating hashids encoder: %w", err)
	}
	return &Codec{h: h}, nil
}

// Encode returns the encoded form of n. n must be in [0, 2^128).
func (c *Codec) Encode(n *big.Int) (string, error) {
	if n.Sign() < 0 || n.Cmp(maxValue) > 0 {
		return "", fmt.Errorf("%w: %s out of range", types.ErrEncode, n)
	}
	if n.Sign() == 0 {
		return types.EmptyID, nil
	}
	encoded, err := c.h.EncodeHex(n.Text(16))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrEncode, n.Text(16), err)
	}
	if len(encoded) < MinLength {
		return "", fmt.Errorf("%w: %s", types.ErrEncode, n.Text(16))
	}
	return encoded, nil
}

// EncodeUUID encodes the 128-bit value of u.
func (c *Codec) EncodeUUID(u uuid.UUID) (string, error) {
	return c.Encode(new(big.Int).SetBytes(u[:]))
}

// Decode returns the value s encodes.
func (c *Codec) Decode(s string) (*big.Int, error) {
	if s == types.EmptyID {
		return new(big.Int), nil
	}
	if s == "" || strings.Trim(s, Alphabet) != "" {
		return nil, fmt.Errorf("%w: %q", types.ErrDecode, s)
	}
	hex, err := c.h.DecodeHex(s)
	if err != nil || hex == "" {
		return nil, fmt.Errorf("%w: %q", types.ErrDecode, s)
	}
	n, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrDecode, s)
	}
	return n, nil
}

// Next returns the encoding of the value after prev. EmptyID is a fixed
// point: it marks "no id" and never starts a sequence.
func (c *Codec) Next(prev string) (string, error) {
	if prev == types.EmptyID {
		return types.EmptyID, nil
	}
	n, err := c.Decode(prev)
	if err != nil {
		return "", err
	}
	n.Add(n, big.NewInt(1))
	if n.Cmp(maxValue) > 0 {
		return "", fmt.Errorf("%w: after %q", types.ErrIDOverflow, prev)
	}
	return c.Encode(n)
}
