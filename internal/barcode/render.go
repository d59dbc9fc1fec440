package barcode

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize         = 256
	code128Height  = 120
	code128Scaling = 2
)

// RenderQR encodes payload as a QR code PNG
func RenderQR(payload string) ([]byte, error) {
	data, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return data, nil
}

// RenderCode128 encodes payload as a Code 128 linear barcode PNG
func RenderCode128(payload string) ([]byte, error) {
	code, err := code128.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode code128: %w", err)
	}
	scaled, err := barcode.Scale(code, code.Bounds().Dx()*code128Scaling, code128Height)
	if err != nil {
		return nil, fmt.Errorf("failed to scale code128: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
