// Package qr renders member codes as QR images and reads them back from
// photos taken by a scanner.
package qr

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	gozxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of generated codes.
const DefaultSize = 256

var (
	ErrEmptyContent = errors.New("qr: empty content")
	ErrUnreadable   = errors.New("qr: no code found in image")
)

// Encode renders content as a PNG QR code of size x size pixels.
func Encode(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

// Decode finds a QR code in a PNG or JPEG image and returns its text.
func Decode(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrUnreadable
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", ErrUnreadable
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := gozxingqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", ErrUnreadable
	}
	return result.GetText(), nil
}
