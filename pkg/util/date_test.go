package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}
func TestAlignFromTo(t *testing.T) {
    from := time.Date(2024, 10, 10, 10, 7, 31, 0, time.UTC)
    to := time.Date(2024, 10, 10, 11, 3, 5, 0, time.UTC)

    f, u := AlignFromTo(from, to, "5m")
    if f.Minute()%5 != 0 || f.Second() != 0 || u.Minute()%5 != 0 {
        t.Fatalf("expected 5m alignment, got %v %v", f, u)
    }

    f, u = AlignFromTo(from, to, "1h")
    if f.Minute() != 0 || u.Minute() != 0 {
        t.Fatalf("expected hour alignment, got %v %v", f, u)
    }
}
