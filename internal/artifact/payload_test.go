package artifact

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	raw := []byte("not really an image")
	enc := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		in        string
		mediaType string
		ext       string
	}{
		{"data:image/png;base64," + enc, "image/png", "png"},
		{"data:image/jpeg;base64," + enc, "image/jpeg", "jpg"},
		{"data:image/jpg;base64," + enc, "image/jpg", "jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			p, err := ParseDataURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.mediaType, p.MediaType)
			assert.Equal(t, tt.ext, p.Ext)
			assert.Equal(t, raw, p.Data)
		})
	}
}

func TestParseDataURL_Missing(t *testing.T) {
	_, err := ParseDataURL("")
	assert.ErrorIs(t, err, ErrMissingPayload)
}

func TestParseDataURL_Invalid(t *testing.T) {
	for _, in := range []string{
		"garbage",
		"data:image/gif;base64,R0lGOD",
		"data:image/png,iVBORw0KGgo",
		"data:image/png;base64,",
		"data:text/plain;base64,aGVsbG8=",
		"xdata:image/png;base64,aGVsbG8=",
		"data:image/png;base64,!!!not base64!!!",
	} {
		_, err := ParseDataURL(in)
		assert.ErrorIs(t, err, ErrInvalidPayload, "input %q", in)
		assert.NotErrorIs(t, err, ErrMissingPayload, "input %q", in)
	}
}

func TestError_KindAndDetails(t *testing.T) {
	cause := errors.New("exit status 1: lp: no default destination")
	err := wrap(ErrPrintFailed, cause)

	assert.ErrorIs(t, err, ErrPrintFailed)
	assert.ErrorIs(t, err, cause)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, cause.Error(), perr.Details())
	assert.Equal(t, "print failed: exit status 1: lp: no default destination", err.Error())

	bare := &Error{Kind: ErrInvalidPayload}
	assert.Equal(t, "", bare.Details())
	assert.Equal(t, "invalid payload", bare.Error())
}
