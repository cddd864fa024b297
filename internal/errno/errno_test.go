package errno

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeZeroIsNil(t *testing.T) {
	require.NoError(t, Decode(0))
	require.NoError(t, DecodeSigned(0))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	err := Decode(uint16(syscall.ENOENT))
	require.Error(t, err)
	require.Equal(t, uint16(syscall.ENOENT), Encode(err))
}
