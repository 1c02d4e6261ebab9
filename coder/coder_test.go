package coder

import (
	"bytes"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/go-sif/sif/accumulators"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/go-sif/sifkit"
	serrors "github.com/go-sif/sifkit/errors"
	"github.com/go-sif/sifkit/internal/wire"
)

// event is a plain record with no strategy of its own, reaching the
// reflection fallback
type event struct {
	Name  string
	Count int64
}

func init() {
	sifkit.RegisterType(reflect.TypeOf(event{}))
	sifkit.RegisterType(reflect.TypeOf(wrapperspb.Int64Value{}))
	sifkit.RegisterType(reflect.TypeOf(accumulators.Count{}))
}

func bothContexts() []sifkit.EncodingContext {
	return []sifkit.EncodingContext{sifkit.WholeStreamContext, sifkit.ChunkedContext}
}

func TestRoundTrip(t *testing.T) {
	c := Create()
	values := []interface{}{
		true,
		int(-42),
		int64(1 << 40),
		uint64(7),
		float64(3.25),
		"hello world",
		[]byte{0x00, 0x01, 0x02},
		sifkit.InstantOf(time.Unix(1500000000, 0)),
		sifkit.KV{Key: "clicks", Value: int64(10)},
		sifkit.Row{"name": "click", "count": int64(3), "at": sifkit.Instant(1234)},
		[]interface{}{},
		[]interface{}{"a", int64(1), sifkit.KV{Key: "k", Value: "v"}},
		event{Name: "signup", Count: 2},
	}
	for _, ctx := range bothContexts() {
		for _, v := range values {
			var buf bytes.Buffer
			err := c.Encode(v, &buf, ctx)
			require.Nil(t, err, "encoding %#v", v)
			decoded, err := c.Decode(&buf, ctx)
			require.Nil(t, err, "decoding %#v", v)
			require.Equal(t, v, decoded)
		}
	}
}

func TestProtoRoundTrip(t *testing.T) {
	c := Create()
	for _, ctx := range bothContexts() {
		var buf bytes.Buffer
		require.Nil(t, c.Encode(wrapperspb.Int64(99), &buf, ctx))
		decoded, err := c.Decode(&buf, ctx)
		require.Nil(t, err)
		require.True(t, proto.Equal(wrapperspb.Int64(99), decoded.(proto.Message)))
	}
}

func TestAccumulatorRoundTrip(t *testing.T) {
	c := Create()
	acc := accumulators.Counter()
	for i := 0; i < 3; i++ {
		require.Nil(t, acc.Accumulate(nil))
	}
	for _, ctx := range bothContexts() {
		var buf bytes.Buffer
		require.Nil(t, c.Encode(acc, &buf, ctx))
		decoded, err := c.Decode(&buf, ctx)
		require.Nil(t, err)
		require.Equal(t, uint64(3), decoded.(*accumulators.Count).GetCount())
	}
}

func TestEncodeNil(t *testing.T) {
	c := Create()
	for _, ctx := range bothContexts() {
		var buf bytes.Buffer
		err := c.Encode(nil, &buf, ctx)
		require.IsType(t, serrors.EncodeNilError{}, err)
		// nothing may reach the stream
		require.Equal(t, 0, buf.Len())
	}
}

func TestEncodeTypedNil(t *testing.T) {
	c := Create()
	values := []interface{}{
		(*sifkit.Row)(nil),
		(*event)(nil),
		(**string)(nil),
	}
	for _, ctx := range bothContexts() {
		for _, v := range values {
			var buf bytes.Buffer
			err := c.Encode(v, &buf, ctx)
			require.IsType(t, serrors.EncodeNilError{}, err, "encoding %T", v)
			require.Equal(t, 0, buf.Len())
		}
	}
}

func TestChunkedFramePrefixBytes(t *testing.T) {
	c := Create()
	// the payload for a []byte value is the type tag ("[]uint8", varint
	// length 7 plus 7 bytes) plus the varint inner length (2 bytes for 290)
	// plus 290 data bytes: 300 bytes, whose varint encoding is 0xAC 0x02
	var buf bytes.Buffer
	require.Nil(t, c.Encode(make([]byte, 290), &buf, sifkit.ChunkedContext))
	require.Equal(t, []byte{0xAC, 0x02}, buf.Bytes()[:2])
	require.Equal(t, 302, buf.Len())
}

func TestDecodeNegativeLength(t *testing.T) {
	c := Create()
	var buf bytes.Buffer
	require.Nil(t, wire.EncodeVarInt(-1, &buf))
	buf.WriteString("trailing garbage")
	_, err := c.Decode(&buf, sifkit.ChunkedContext)
	require.IsType(t, serrors.InvalidLengthError{}, err)
}

func TestDecodeTruncatedFrame(t *testing.T) {
	c := Create()
	var buf bytes.Buffer
	require.Nil(t, c.Encode("a long enough payload", &buf, sifkit.ChunkedContext))
	truncated := buf.Bytes()[:buf.Len()-4]
	_, err := c.Decode(bytes.NewReader(truncated), sifkit.ChunkedContext)
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestDecodeFrameLengthBeyondStream(t *testing.T) {
	c := Create()
	// a corrupt-but-positive length claiming a terabyte-scale frame must fail
	// on the bytes actually present, not allocate up-front
	var buf bytes.Buffer
	require.Nil(t, wire.EncodeVarInt(1<<40, &buf))
	buf.WriteString("nowhere near that much data")
	_, err := c.Decode(&buf, sifkit.ChunkedContext)
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestBackToBackChunkedValues(t *testing.T) {
	c := Create()
	values := []interface{}{"first", int64(2), sifkit.Row{"third": true}}
	var buf bytes.Buffer
	for _, v := range values {
		require.Nil(t, c.Encode(v, &buf, sifkit.ChunkedContext))
	}
	for _, v := range values {
		decoded, err := c.Decode(&buf, sifkit.ChunkedContext)
		require.Nil(t, err)
		require.Equal(t, v, decoded)
	}
	require.Equal(t, 0, buf.Len())
}

func TestElementsEncodesIdenticallyToIterable(t *testing.T) {
	c := Create()
	wrapped := sifkit.Elements{"a", int64(1), true}
	plain := []interface{}{"a", int64(1), true}
	for _, ctx := range bothContexts() {
		var wrappedBuf, plainBuf bytes.Buffer
		require.Nil(t, c.Encode(wrapped, &wrappedBuf, ctx))
		require.Nil(t, c.Encode(plain, &plainBuf, ctx))
		require.Equal(t, plainBuf.Bytes(), wrappedBuf.Bytes())
		// wrapper bytes decode to the plain iterable form
		decoded, err := c.Decode(&wrappedBuf, ctx)
		require.Nil(t, err)
		require.Equal(t, plain, decoded)
	}
}

func TestEmptyAndNonEmptyIterables(t *testing.T) {
	c := Create()
	for _, v := range []interface{}{[]interface{}{}, []interface{}{int64(1), int64(2), int64(3)}} {
		var buf bytes.Buffer
		require.Nil(t, c.Encode(v, &buf, sifkit.ChunkedContext))
		decoded, err := c.Decode(&buf, sifkit.ChunkedContext)
		require.Nil(t, err)
		require.Equal(t, v, decoded)
	}
}
