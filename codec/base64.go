// Package codec provides bidirectional transformations between wire and
// domain representations of the atom payloads.
package codec

import (
	"context"
	"encoding/base64"
	"strings"

	schemabridge "github.com/reoring/schemabridge"
)

// Base64 returns a Codec between padded standard base64 text and raw bytes.
// Decoding is strict: non-canonical trailing bits and line breaks are rejected.
func Base64() schemabridge.Codec[string, []byte] { return base64Codec{} }

type base64Codec struct{}

func (base64Codec) Decode(ctx context.Context, a string) ([]byte, error) {
	if strings.ContainsAny(a, "\r\n") {
		return nil, invalidBase64(nil)
	}
	b, err := base64.StdEncoding.Strict().DecodeString(a)
	if err != nil {
		return nil, invalidBase64(err)
	}
	return b, nil
}

func (base64Codec) Encode(ctx context.Context, b []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(b), nil
}

func invalidBase64(cause error) schemabridge.Issues {
	return schemabridge.Issues{{
		Path:    "/",
		Code:    schemabridge.CodeInvalidFormat,
		Message: "invalid base64 string",
		Hint:    "base64",
		Cause:   cause,
		Params:  map[string]any{"format": "base64"},
	}}
}
