// Package qr renders short URLs into QR code payloads. The rest of the
// service treats the payload as opaque and only stores it on the record.
package qr

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// Renderer encodes a short URL into a base64 PNG data URL.
type Renderer struct {
	size int
}

func NewRenderer() *Renderer {
	return &Renderer{size: 256}
}

// Render returns a data:image/png;base64 payload for the given URL.
func (r *Renderer) Render(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, r.size)
	if err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
