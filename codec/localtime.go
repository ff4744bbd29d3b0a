package codec

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	schemabridge "github.com/reoring/schemabridge"
)

// LocalDatetime is the wire form of a wall-clock time in a named zone.
type LocalDatetime struct {
	Date      string // 2006-01-02
	LocalTime string // 15:04:05 with optional fraction, no offset
	Timezone  string // IANA name such as Asia/Tokyo, or an offset such as +09:00
}

const localTimeLayout = "15:04:05.999999999"

// DatetimeLocal returns a Codec between LocalDatetime and time.Time located
// in the named zone.
func DatetimeLocal() schemabridge.Codec[LocalDatetime, time.Time] { return localCodec{} }

type localCodec struct{}

func (localCodec) Decode(ctx context.Context, a LocalDatetime) (time.Time, error) {
	var iss schemabridge.Issues
	d, err := time.Parse(time.DateOnly, a.Date)
	if err != nil {
		iss = schemabridge.AppendIssues(iss, formatIssue("/date", "date", err))
	}
	tm, err := time.Parse(localTimeLayout, a.LocalTime)
	if err != nil {
		iss = schemabridge.AppendIssues(iss, formatIssue("/local_time", "time", err))
	}
	loc, err := ParseZone(a.Timezone)
	if err != nil {
		iss = schemabridge.AppendIssues(iss, formatIssue("/timezone", "timezone", err))
	}
	if len(iss) > 0 {
		return time.Time{}, iss
	}
	return time.Date(d.Year(), d.Month(), d.Day(), tm.Hour(), tm.Minute(), tm.Second(), tm.Nanosecond(), loc), nil
}

func (localCodec) Encode(ctx context.Context, b time.Time) (LocalDatetime, error) {
	if b.IsZero() {
		return LocalDatetime{}, schemabridge.Issues{{Path: "/", Code: schemabridge.CodeRequired, Message: "zero time"}}
	}
	return LocalDatetime{
		Date:      b.Format(time.DateOnly),
		LocalTime: b.Format(localTimeLayout),
		Timezone:  b.Location().String(),
	}, nil
}

var offsetRe = regexp.MustCompile(`^([+-])([01]\d|2[0-3]):?([0-5]\d)$`)

// ParseZone resolves an IANA zone name, "Z", or a UTC offset written as
// +hh:mm or +hhmm. Offsets become fixed zones named in the +hh:mm form.
// "Local" is rejected.
func ParseZone(name string) (*time.Location, error) {
	switch name {
	case "":
		return nil, errors.New("empty timezone")
	case "Local":
		return nil, fmt.Errorf("timezone %q depends on the host", name)
	case "Z":
		return time.UTC, nil
	}
	if m := offsetRe.FindStringSubmatch(name); m != nil {
		hh, _ := strconv.Atoi(m[2])
		mm, _ := strconv.Atoi(m[3])
		secs := hh*3600 + mm*60
		if m[1] == "-" {
			secs = -secs
		}
		return time.FixedZone(m[1]+m[2]+":"+m[3], secs), nil
	}
	return time.LoadLocation(name)
}

func formatIssue(path, format string, cause error) schemabridge.Issue {
	return schemabridge.Issue{
		Path:    path,
		Code:    schemabridge.CodeInvalidFormat,
		Message: "invalid " + format,
		Hint:    format,
		Cause:   cause,
		Params:  map[string]any{"format": format},
	}
}
