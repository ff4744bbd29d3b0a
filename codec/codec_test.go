package codec_test

import (
	"bytes"
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/codec"
)

// 1x1 red dot PNG
const redDot = "iVBORw0KGgoAAAANSUhEUgAAAAUAAAAFCAYAAACNbyblAAAAHElEQVQI12P4//8/w38GIAXDIBKE0DHxgljNBAAO9TXL0Y4OHwAAAABJRU5ErkJggg=="

func TestBase64_Roundtrip(t *testing.T) {
	ctx := context.Background()
	c := codec.Base64()
	b, err := c.Decode(ctx, redDot)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("unexpected bytes: %x", b[:4])
	}
	out, err := c.Encode(ctx, b)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != redDot {
		t.Fatalf("roundtrip mismatch: %s", out)
	}
}

func TestBase64_RejectsMalformed(t *testing.T) {
	c := codec.Base64()
	for _, in := range []string{"base64encodeddata", "aGVsbG8", "aGVs\nbG8="} {
		_, err := c.Decode(context.Background(), in)
		if !schemabridge.HasCode(err, schemabridge.CodeInvalidFormat) {
			t.Fatalf("%q: expected invalid_format, got %v", in, err)
		}
	}
}

func TestDataURL(t *testing.T) {
	ctx := context.Background()
	c := codec.DataURL("image/png")
	got, err := c.Decode(ctx, "data:image/png;base64,iVBORw0KGgo=")
	if err != nil || got != "iVBORw0KGgo=" {
		t.Fatalf("decode: %q %v", got, err)
	}
	if _, err := c.Decode(ctx, "data:image/png,iVBORw0KGgo="); err == nil {
		t.Fatalf("expected error for non-base64 data URL")
	}
	if _, err := c.Decode(ctx, "iVBORw0KGgo="); err == nil {
		t.Fatalf("expected error for bare base64")
	}
	if _, err := c.Decode(ctx, "data:image/png;base64,abc"); !schemabridge.HasCode(err, schemabridge.CodeInvalidFormat) {
		t.Fatalf("expected invalid_format for a truncated payload, got %v", err)
	}
	enc, err := c.Encode(ctx, redDot)
	if err != nil || enc != "data:image/png;base64,"+redDot {
		t.Fatalf("encode: %q %v", enc, err)
	}
	if _, err := c.Encode(ctx, "not base64!"); err == nil {
		t.Fatalf("expected error encoding invalid payload")
	}
}

func TestSplitDataURL(t *testing.T) {
	mt, payload, ok := codec.SplitDataURL("data:text/plain;base64,aGk=")
	if !ok || mt != "text/plain" || payload != "aGk=" {
		t.Fatalf("got %q %q %v", mt, payload, ok)
	}
	mt, _, ok = codec.SplitDataURL("data:;base64,aGk=")
	if !ok || mt != "" {
		t.Fatalf("empty media type: %q %v", mt, ok)
	}
}

func TestDatetimeLocal_Roundtrip(t *testing.T) {
	ctx := context.Background()
	c := codec.DatetimeLocal()
	in := codec.LocalDatetime{Date: "2024-03-01", LocalTime: "09:15:30", Timezone: "Asia/Tokyo"}
	tm, err := c.Decode(ctx, in)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !tm.Equal(time.Date(2024, 3, 1, 0, 15, 30, 0, time.UTC)) {
		t.Fatalf("unexpected instant: %v", tm.UTC())
	}
	out, err := c.Encode(ctx, tm)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}
}

func TestDatetimeLocal_Invalid(t *testing.T) {
	_, err := codec.DatetimeLocal().Decode(context.Background(), codec.LocalDatetime{
		Date: "2024-13-01", LocalTime: "9:15", Timezone: "Nowhere/Special",
	})
	iss, ok := schemabridge.AsIssues(err)
	if !ok || len(iss) != 3 {
		t.Fatalf("expected 3 issues, got %v", err)
	}
	if iss[0].Path != "/date" || iss[1].Path != "/local_time" || iss[2].Path != "/timezone" {
		t.Fatalf("paths: %v", iss)
	}
	if _, err := codec.DatetimeLocal().Encode(context.Background(), time.Time{}); err == nil {
		t.Fatalf("expected error for zero time")
	}
}

func TestParseZone(t *testing.T) {
	cases := []struct {
		in     string
		offset int
		name   string
	}{
		{"UTC", 0, "UTC"},
		{"Z", 0, "UTC"},
		{"+09:00", 9 * 3600, "+09:00"},
		{"-0530", -(5*3600 + 30*60), "-05:30"},
		{"Asia/Tokyo", 9 * 3600, "Asia/Tokyo"},
	}
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, c := range cases {
		loc, err := codec.ParseZone(c.in)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if _, off := at.In(loc).Zone(); off != c.offset || loc.String() != c.name {
			t.Fatalf("%q: got %s offset %d", c.in, loc, off)
		}
	}
	for _, bad := range []string{"", "Local", "Nowhere/Special", "+24:00", "+9:00", "09:00"} {
		if _, err := codec.ParseZone(bad); err == nil {
			t.Fatalf("%q should be rejected", bad)
		}
	}
}

func TestDatetimeLocal_Offset(t *testing.T) {
	ctx := context.Background()
	in := codec.LocalDatetime{Date: "2024-03-01", LocalTime: "09:15:30.5", Timezone: "+02:00"}
	tm, err := codec.DatetimeLocal().Decode(ctx, in)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !tm.Equal(time.Date(2024, 3, 1, 7, 15, 30, 5e8, time.UTC)) {
		t.Fatalf("unexpected instant: %v", tm.UTC())
	}
	out, err := codec.DatetimeLocal().Encode(ctx, tm)
	if err != nil || out != in {
		t.Fatalf("roundtrip mismatch: %+v %v", out, err)
	}
}
