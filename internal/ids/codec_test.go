package ids

import (
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

func newCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec()
	require.NoError(t, err)
	return c
}

func TestCodecRoundTrip(t *testing.T) {
	c := newCodec(t)
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	values := []*big.Int{
		big.NewInt(1),
		big.NewInt(255),
		big.NewInt(1 << 48),
		new(big.Int).SetBytes(u[:]),
		new(big.Int).Set(maxValue),
	}
	for _, n := range values {
		t.Run(n.Text(16), func(t *testing.T) {
			s, err := c.Encode(n)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(s), MinLength)
			assert.Regexp(t, "^["+Alphabet+"]+$", s)

			back, err := c.Decode(s)
			require.NoError(t, err)
			assert.Equal(t, 0, n.Cmp(back))
		})
	}
}

func TestCodecZeroIsSentinel(t *testing.T) {
	c := newCodec(t)
	s, err := c.Encode(new(big.Int))
	require.NoError(t, err)
	assert.Equal(t, types.EmptyID, s)

	n, err := c.Decode(types.EmptyID)
	require.NoError(t, err)
	assert.Equal(t, 0, n.Sign())
}

func TestCodecEncodeOutOfRange(t *testing.T) {
	c := newCodec(t)
	_, err := c.Encode(big.NewInt(-1))
	assert.ErrorIs(t, err, types.ErrEncode)

	tooBig := new(big.Int).Add(maxValue, big.NewInt(1))
	_, err = c.Encode(tooBig)
	assert.ErrorIs(t, err, types.ErrEncode)
}

func TestCodecDecodeInvalid(t *testing.T) {
	c := newCodec(t)
	for _, s := range []string{"", "not-an-id!", "abc"} {
		_, err := c.Decode(s)
		assert.ErrorIs(t, err, types.ErrDecode, "decode %q", s)
	}
}

func TestCodecNext(t *testing.T) {
	c := newCodec(t)
	start, err := c.EncodeUUID(uuid.MustParse("00000000-0000-0000-0000-0000000000ff"))
	require.NoError(t, err)

	prev := start
	last := big.NewInt(0xff)
	for i := 0; i < 50; i++ {
		next, err := c.Next(prev)
		require.NoError(t, err)
		n, err := c.Decode(next)
		require.NoError(t, err)
		assert.Equal(t, 1, n.Cmp(last), "ids must strictly increase")
		assert.Equal(t, int64(0xff+i+1), n.Int64())
		last, prev = n, next
	}
}

func TestCodecNextSentinelIsFixedPoint(t *testing.T) {
	c := newCodec(t)
	next, err := c.Next(types.EmptyID)
	require.NoError(t, err)
	assert.Equal(t, types.EmptyID, next)
}

func TestCodecNextOverflow(t *testing.T) {
	c := newCodec(t)
	top, err := c.Encode(maxValue)
	require.NoError(t, err)
	_, err = c.Next(top)
	assert.ErrorIs(t, err, types.ErrIDOverflow)
}
