package pagination

import (
	"testing"
	"time"

	"github.com/Sternrassler/guildkit/pkg/rest"
)

func TestSnowflakeAnchor(t *testing.T) {
	tests := []struct {
		name    string
		lastKey uint64
		order   Order
		want    string
	}{
		{"fresh backward omits anchor", 0, Backward, ""},
		{"fresh forward starts at zero", 0, Forward, "0"},
		{"anchored backward", 175928847299117063, Backward, "175928847299117063"},
		{"anchored forward", 42, Forward, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnowflakeAnchor(tt.lastKey, tt.order); got != tt.want {
				t.Errorf("SnowflakeAnchor() = %q, want %q", got, tt.want)
			}
		})
	}
}

type pinned struct {
	At time.Time
}

func TestTimestampAnchor(t *testing.T) {
	anchor := TimestampAnchor(func(p pinned) time.Time { return p.At })
	at := time.Date(2024, 3, 5, 10, 30, 0, 123456000, time.FixedZone("CET", 3600))

	tests := []struct {
		name    string
		lastKey uint64
		last    *pinned
		order   Order
		want    string
	}{
		{"from last element in utc", KeyFromTime(at), &pinned{At: at}, Backward, "2024-03-05T09:30:00.123456+00:00"},
		{"from key after skip", KeyFromTime(at), nil, Backward, "2024-03-05T09:30:00.123000+00:00"},
		{"fresh forward starts at epoch", 0, nil, Forward, "2015-01-01T00:00:00.000000+00:00"},
		{"fresh backward omits anchor", 0, nil, Backward, ""},
		{"snowflake-sized key is clamped", 175928847299117063, nil, Backward, "9999-12-31T23:59:59.999000+00:00"},
		{"key above max int64 is clamped", 1<<63 + 5, nil, Backward, "9999-12-31T23:59:59.999000+00:00"},
		{"largest representable key", maxTimestampKey, nil, Forward, "9999-12-31T23:59:59.999000+00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := anchor(tt.lastKey, tt.last, tt.order); got != tt.want {
				t.Errorf("anchor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyFromTime(t *testing.T) {
	if got := KeyFromTime(time.UnixMilli(1700000000123)); got != 1700000000123 {
		t.Errorf("KeyFromTime() = %d", got)
	}
	if got := KeyFromTime(time.Unix(-10, 0)); got != 0 {
		t.Errorf("KeyFromTime(before 1970) = %d, want 0", got)
	}
}

func TestFieldElements(t *testing.T) {
	split := FieldElements("items")

	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"array under field", `{"items":[{"id":1},{"id":2}],"has_more":true}`, 2, false},
		{"missing field", `{"has_more":false}`, 0, false},
		{"null field", `{"items":null}`, 0, false},
		{"field not an array", `{"items":{"id":1}}`, 0, true},
		{"top-level array", `[{"id":1}]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := split([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("FieldElements() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("FieldElements() = %d elements, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEndpoint_Defaults(t *testing.T) {
	e := Endpoint[item]{
		Route: rest.GetBans.MustCompile("9"),
		Key:   func(i item) uint64 { return i.ID },
	}.withDefaults()

	if e.Name != rest.GetBans.Template {
		t.Errorf("Name = %q, want route template", e.Name)
	}
	if e.Decode == nil || e.Elements == nil || e.Anchor == nil {
		t.Fatal("withDefaults() left a hook nil")
	}
	raws, err := e.Elements([]byte(`[{"id":7}]`))
	if err != nil || len(raws) != 1 {
		t.Fatalf("Elements() = %v, %v", raws, err)
	}
	v, err := e.Decode(raws[0])
	if err != nil || v.ID != 7 {
		t.Errorf("Decode() = %+v, %v", v, err)
	}
	if e.Anchor(7, &v, Backward) != "7" {
		t.Errorf("default anchor = %q", e.Anchor(7, &v, Backward))
	}
}
