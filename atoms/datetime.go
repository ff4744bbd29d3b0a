package atoms

import (
	"context"
	"time"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/codec"
	"github.com/reoring/schemabridge/dsl"
)

// DatetimeLocal is a wall-clock date and time with the zone it was taken in.
// The same schema serves input and output.
func DatetimeLocal() *dsl.AtomSchema {
	tz := dsl.Refine(dsl.String(), "timezone", checkTimezone)
	obj := dsl.Object().
		Field("date", dsl.Describe(dsl.String().Format("date"), "The date of the local datetime.")).Required().
		Field("local_time", dsl.Describe(dsl.String().Format("time"), "The time of the local datetime without timezone info.")).Required().
		Field("timezone", dsl.Describe(tz, "The timezone of the local time.")).Required().
		MustBuild()
	return dsl.Atom(DatetimeLocalID, dsl.Describe(obj, "This class represents a local datetime, with a datetime and a timezone."))
}

func checkTimezone(_ context.Context, v any) error {
	if _, err := codec.ParseZone(v.(string)); err != nil {
		return schemabridge.Issues{{
			Path:    "/",
			Code:    schemabridge.CodeInvalidFormat,
			Message: "invalid timezone",
			Hint:    "an IANA name such as Asia/Tokyo, or an offset such as +09:00",
			Cause:   err,
			Params:  map[string]any{"format": "timezone"},
		}}
	}
	return nil
}

// DatetimeLocalTime returns the instant named by a value parsed with
// DatetimeLocal.
func DatetimeLocalTime(ctx context.Context, v any) (time.Time, error) {
	m, _ := v.(map[string]any)
	str := func(k string) string { s, _ := m[k].(string); return s }
	return codec.DatetimeLocal().Decode(ctx, codec.LocalDatetime{
		Date:      str("date"),
		LocalTime: str("local_time"),
		Timezone:  str("timezone"),
	})
}

// DatetimeLocalValue is the inverse of DatetimeLocalTime. The result parses
// with DatetimeLocal.
func DatetimeLocalValue(ctx context.Context, t time.Time) (map[string]any, error) {
	ld, err := codec.DatetimeLocal().Encode(ctx, t)
	if err != nil {
		return nil, err
	}
	return map[string]any{"date": ld.Date, "local_time": ld.LocalTime, "timezone": ld.Timezone}, nil
}
