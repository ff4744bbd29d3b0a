package codec

import (
	"context"
	"regexp"
	"strings"

	schemabridge "github.com/reoring/schemabridge"
)

var dataURLRe = regexp.MustCompile(`^data:[^;]*;base64,[A-Za-z0-9+/]+={0,3}$`)

// IsDataURL reports whether s is a base64 data URL.
func IsDataURL(s string) bool { return dataURLRe.MatchString(s) }

// SplitDataURL returns the media type and the base64 payload of a data URL.
// The payload is the text after the last "base64," marker.
func SplitDataURL(s string) (mediaType, payload string, ok bool) {
	if !IsDataURL(s) {
		return "", "", false
	}
	i := strings.LastIndex(s, "base64,")
	mediaType = s[len("data:"):strings.IndexByte(s, ';')]
	return mediaType, s[i+len("base64,"):], true
}

// DataURL returns a Codec between a base64 data URL and its payload.
// Both directions require a payload that is strict base64. Encode prefixes the
// payload with mediaType.
func DataURL(mediaType string) schemabridge.Codec[string, string] {
	return dataURLCodec{mediaType: mediaType}
}

type dataURLCodec struct{ mediaType string }

func (c dataURLCodec) Decode(ctx context.Context, a string) (string, error) {
	_, payload, ok := SplitDataURL(a)
	if !ok {
		return "", schemabridge.Issues{{
			Path:    "/",
			Code:    schemabridge.CodeInvalidFormat,
			Message: "invalid data URL",
			Hint:    "data:<media type>;base64,<payload>",
			Params:  map[string]any{"format": "data-url"},
		}}
	}
	if _, err := Base64().Decode(ctx, payload); err != nil {
		return "", err
	}
	return payload, nil
}

func (c dataURLCodec) Encode(ctx context.Context, b string) (string, error) {
	if _, err := Base64().Decode(ctx, b); err != nil {
		return "", err
	}
	return "data:" + c.mediaType + ";base64," + b, nil
}
