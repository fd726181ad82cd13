// Package qrcode renders QR challenge tokens as PNG images, base64-encoded
// as a data URI so relying services can inline them without a second
// round trip, grounded on skip2/go-qrcode's Encode(content, level, size)
// -> PNG bytes pattern used in the pack's bridge QR helper.
package qrcode

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const size = 256

// DataURI renders content as a PNG QR code and returns it as a
// base64-encoded data URI suitable for direct embedding in a JSON
// response or an <img> src.
func DataURI(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("qrcode: failed to encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
