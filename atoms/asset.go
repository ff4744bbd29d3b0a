package atoms

import (
	"context"
	"errors"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/codec"
	"github.com/reoring/schemabridge/dsl"
)

// Atom identities. Input and output halves are distinct types.
const (
	ImageInputID    dsl.AtomID = "image.input"
	ImageOutputID   dsl.AtomID = "image.output"
	FileInputID     dsl.AtomID = "file.input"
	FileOutputID    dsl.AtomID = "file.output"
	DatetimeLocalID dsl.AtomID = "datetime_local"
)

// SourceRule names the refinement shared by Image and File.
const SourceRule = "url or content_type+data"

var errNoSource = errors.New("either url, or both content_type and data, must be provided")

// ImageInput accepts an image as a url, or as content_type plus data given as
// base64 text, a data URL, a buffer or a Future of any of them. data is
// normalized to base64 text.
func ImageInput() *dsl.AtomSchema { return dsl.Atom(ImageInputID, assetInput("image")) }

// ImageOutput is the backend representation of an image; data is decoded to []byte.
func ImageOutput() *dsl.AtomSchema { return dsl.Atom(ImageOutputID, assetOutput("image")) }

// FileInput is ImageInput for arbitrary media types.
func FileInput() *dsl.AtomSchema { return dsl.Atom(FileInputID, assetInput("file")) }

// FileOutput is ImageOutput for arbitrary media types.
func FileOutput() *dsl.AtomSchema { return dsl.Atom(FileOutputID, assetOutput("file")) }

func assetInput(kind string) *dsl.ObjectSchema {
	data := Resolved(dsl.Union(dsl.String().Base64(), DataURLToBase64(), BufferToBase64()))
	return assetObject(kind, dsl.Describe(data, "The Buffer or base64 encoded data of the "+kind))
}

func assetOutput(kind string) *dsl.ObjectSchema {
	return assetObject(kind, dsl.Describe(Base64ToBuffer(), "The data of the "+kind+" as bytes"))
}

func assetObject(kind string, data dsl.Node) *dsl.ObjectSchema {
	return dsl.Object().
		Field("name", dsl.Describe(dsl.String(), "An optional name")).
		Field("content_type", dsl.Describe(dsl.String(), "The content type of the "+kind)).
		Field("url", dsl.Describe(dsl.String().Format("url"), "The url of the "+kind)).
		Field("data", data).
		Refine(SourceRule, requireSource).
		MustBuild()
}

func requireSource(_ context.Context, v map[string]any) error {
	if present(v["url"]) || (present(v["content_type"]) && present(v["data"])) {
		return nil
	}
	return errNoSource
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case []byte:
		return len(x) > 0
	}
	return true
}

// AssetDataURL renders a value parsed with ImageInput or FileInput as a data
// URL built from its content_type and data.
func AssetDataURL(ctx context.Context, v any) (string, error) {
	m, _ := v.(map[string]any)
	data, ok := m["data"].(string)
	if !ok || data == "" {
		return "", schemabridge.Issues{{Path: "/data", Code: schemabridge.CodeRequired, Message: "base64 data is required"}}
	}
	ct, _ := m["content_type"].(string)
	return codec.DataURL(ct).Encode(ctx, data)
}
