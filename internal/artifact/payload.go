package artifact

import (
	"encoding/base64"
	"fmt"
	"regexp"
)

var dataURLPattern = regexp.MustCompile(`^data:(image/(png|jpeg|jpg));base64,(.+)$`)

// Payload is a decoded embedded image.
type Payload struct {
	MediaType string // image/png, image/jpeg or image/jpg
	Ext       string // png or jpg
	Data      []byte
}

// ParseDataURL decodes "data:image/(png|jpeg|jpg);base64,<data>".
func ParseDataURL(s string) (Payload, error) {
	if s == "" {
		return Payload{}, &Error{Kind: ErrMissingPayload}
	}
	m := dataURLPattern.FindStringSubmatch(s)
	if m == nil {
		return Payload{}, &Error{Kind: ErrInvalidPayload}
	}
	data, err := base64.StdEncoding.DecodeString(m[3])
	if err != nil {
		return Payload{}, wrap(ErrInvalidPayload, fmt.Errorf("decode base64: %w", err))
	}

	ext := "png"
	if m[2] == "jpeg" || m[2] == "jpg" {
		ext = "jpg"
	}
	return Payload{MediaType: m[1], Ext: ext, Data: data}, nil
}
