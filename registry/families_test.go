package registry

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/go-sif/sif/accumulators"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/go-sif/sifkit"
)

// versionedRecord is a generated-style record carrying its own binary schema
type versionedRecord struct {
	Version uint32
}

func (r *versionedRecord) MarshalBinary() ([]byte, error) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, r.Version)
	return data, nil
}

func (r *versionedRecord) UnmarshalBinary(data []byte) error {
	r.Version = binary.LittleEndian.Uint32(data)
	return nil
}

// reflectedRecord has no strategy of its own and lands on the fallback
type reflectedRecord struct {
	Name  string
	Total int64
}

func init() {
	sifkit.RegisterType(reflect.TypeOf(versionedRecord{}))
	sifkit.RegisterType(reflect.TypeOf(reflectedRecord{}))
	sifkit.RegisterType(reflect.TypeOf(wrapperspb.StringValue{}))
	sifkit.RegisterType(reflect.TypeOf(accumulators.Count{}))
}

func TestBinaryRecordFamilyRoundTrip(t *testing.T) {
	reg, err := Build()
	require.Nil(t, err)
	var buf bytes.Buffer
	require.Nil(t, reg.WriteValue(&buf, &versionedRecord{Version: 7}))
	decoded, err := reg.ReadValue(&buf)
	require.Nil(t, err)
	require.Equal(t, versionedRecord{Version: 7}, decoded)
}

func TestProtoFamilyRoundTrip(t *testing.T) {
	reg, err := Build()
	require.Nil(t, err)
	var buf bytes.Buffer
	require.Nil(t, reg.WriteValue(&buf, wrapperspb.String("hello")))
	decoded, err := reg.ReadValue(&buf)
	require.Nil(t, err)
	msg, ok := decoded.(proto.Message)
	require.True(t, ok)
	require.True(t, proto.Equal(wrapperspb.String("hello"), msg))
}

func TestFallbackFamilyRoundTrip(t *testing.T) {
	reg, err := Build()
	require.Nil(t, err)
	record := reflectedRecord{Name: "total_events", Total: 12345}
	var buf bytes.Buffer
	require.Nil(t, reg.WriteValue(&buf, record))
	decoded, err := reg.ReadValue(&buf)
	require.Nil(t, err)
	require.Equal(t, record, decoded)

	// pointer values are canonicalized to the value form
	buf.Reset()
	require.Nil(t, reg.WriteValue(&buf, &record))
	decoded, err = reg.ReadValue(&buf)
	require.Nil(t, err)
	require.Equal(t, record, decoded)
}

func TestAccumulatorFamilyRoundTrip(t *testing.T) {
	reg, err := Build()
	require.Nil(t, err)
	acc := accumulators.Counter()
	for i := 0; i < 5; i++ {
		require.Nil(t, acc.Accumulate(nil))
	}
	var buf bytes.Buffer
	require.Nil(t, reg.WriteValue(&buf, acc))
	decoded, err := reg.ReadValue(&buf)
	require.Nil(t, err)
	count, ok := decoded.(*accumulators.Count)
	require.True(t, ok)
	require.Equal(t, uint64(5), count.GetCount())
}
