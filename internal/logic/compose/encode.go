package compose

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
)

// MediaTypePNG is the media type of composed artifacts.
const MediaTypePNG = "image/png"

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(256 * 1024)
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURL embeds data as "data:<mediaType>;base64,<payload>".
func DataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
