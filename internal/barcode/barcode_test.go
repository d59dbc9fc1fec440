package barcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func TestCodec_SealOpen(t *testing.T) {
	codec := NewCodec(testKey(7))

	first, err := codec.Seal("STU2026001")
	require.NoError(t, err)
	second, err := codec.Seal("STU2026001")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "payloads must not repeat")
	assert.LessOrEqual(t, len(first), 255)

	plain, err := codec.Open(first)
	require.NoError(t, err)
	assert.Equal(t, "STU2026001", plain)
}

func TestCodec_OpenRejectsForeignPayloads(t *testing.T) {
	codec := NewCodec(testKey(7))
	other := NewCodec(testKey(9))

	payload, err := other.Seal("STU2026001")
	require.NoError(t, err)

	tests := []string{"", "not base64 !!", "c2hvcnQ", payload}
	for _, tc := range tests {
		_, err := codec.Open(tc)
		assert.ErrorIs(t, err, ErrInvalidPayload, tc)
	}
}

func TestRender(t *testing.T) {
	payload, err := NewCodec(testKey(1)).Seal("STU2026042")
	require.NoError(t, err)

	qr, err := RenderQR(payload)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(qr))
	require.NoError(t, err)
	assert.Equal(t, qrSize, cfg.Width)

	linear, err := RenderCode128(payload)
	require.NoError(t, err)
	cfg, err = png.DecodeConfig(bytes.NewReader(linear))
	require.NoError(t, err)
	assert.Equal(t, code128Height, cfg.Height)
}
