package atoms

import (
	"bytes"
	"context"
	"io"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/codec"
	"github.com/reoring/schemabridge/dsl"
	"github.com/reoring/schemabridge/i18n"
)

const dataURLPattern = `^data:[^;]*;base64,[A-Za-z0-9+/]+={0,3}$`

// Buffer accepts binary data as []byte, *bytes.Buffer or io.Reader (read to
// the end) and outputs []byte.
func Buffer() dsl.Node { return dsl.Custom("buffer", toBytes) }

func toBytes(_ context.Context, v any) (any, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case *bytes.Buffer:
		if b == nil {
			break
		}
		return bytes.Clone(b.Bytes()), nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, schemabridge.Issues{{Path: "/", Code: schemabridge.CodeParseError, Message: "read buffer: " + err.Error(), Cause: err}}
		}
		return data, nil
	}
	return nil, schemabridge.Issues{{
		Path:    "/",
		Code:    schemabridge.CodeInvalidType,
		Message: i18n.T(schemabridge.CodeInvalidType, nil),
		Hint:    "expected buffer ([]byte or io.Reader)",
	}}
}

// BufferToBase64 accepts a buffer, or a Future of one, and outputs its
// base64 text.
func BufferToBase64() dsl.Node {
	return dsl.Transform(Resolved(Buffer()), func(ctx context.Context, v any) (any, error) {
		return codec.Base64().Encode(ctx, v.([]byte))
	})
}

// Base64ToBuffer accepts strict base64 text and outputs the decoded bytes.
func Base64ToBuffer() dsl.Node {
	return dsl.Transform(dsl.String().Base64(), func(ctx context.Context, v any) (any, error) {
		return codec.Base64().Decode(ctx, v.(string))
	})
}

// DataURLToBase64 accepts a base64 data URL and outputs its payload.
func DataURLToBase64() dsl.Node {
	return dsl.Transform(dsl.String().Pattern(dataURLPattern), func(ctx context.Context, v any) (any, error) {
		return codec.DataURL("").Decode(ctx, v.(string))
	})
}
