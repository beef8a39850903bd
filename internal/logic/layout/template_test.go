package layout

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseTemplate_Named(t *testing.T) {
	cases := []struct {
		in   string
		want Template
	}{
		{"", Single},
		{"single", Single},
		{"SINGLE", Single},
		{"polaroid", Polaroid},
		{"two", Two},
		{"two-up", Two},
		{"four", Four},
		{" four-up ", Four},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTemplate(tc.in)
			if err != nil {
				t.Fatalf("ParseTemplate(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseTemplate(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseTemplate_Multi(t *testing.T) {
	cases := []struct {
		in             string
		frames, perRow int
	}{
		{"multi-1", 1, 1},
		{"multi-3", 3, 2},
		{"multi-6", 6, 2},
		{"multi-6x3", 6, 3},
		{"multi-4x4", 4, 4},
		{"multi-12x1", 12, 1},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTemplate(tc.in)
			if err != nil {
				t.Fatalf("ParseTemplate(%q): %v", tc.in, err)
			}
			if got.Kind != KindMulti || got.Frames != tc.frames || got.PerRow != tc.perRow {
				t.Errorf("ParseTemplate(%q) = %+v, want multi %d/%d", tc.in, got, tc.frames, tc.perRow)
			}
		})
	}
}

func TestParseTemplate_Invalid(t *testing.T) {
	cases := []string{
		"three",
		"multi",
		"multi-",
		"multi-0",
		"multi-13",
		"multi-x2",
		"multi-4x0",
		"multi-4x5",
		"multi-4xz",
		"multi--2",
	}
	for _, in := range cases {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTemplate(in)
			if !errors.Is(err, ErrUnknownTemplate) {
				t.Errorf("ParseTemplate(%q) err = %v, want ErrUnknownTemplate", in, err)
			}
		})
	}
}

func TestTemplate_NameRoundTrip(t *testing.T) {
	names := []string{"single", "polaroid", "two", "four", "multi-1", "multi-3", "multi-6", "multi-6x3", "multi-4x4"}
	for _, name := range names {
		tpl, err := ParseTemplate(name)
		if err != nil {
			t.Fatalf("ParseTemplate(%q): %v", name, err)
		}
		if got := tpl.Name(); got != name {
			t.Errorf("Name() = %q, want %q", got, name)
		}
	}
}

func TestTemplate_MultiTwoIsTwo(t *testing.T) {
	tpl, err := ParseTemplate("multi-2")
	if err != nil {
		t.Fatal(err)
	}
	if tpl != Two {
		t.Errorf("multi-2 = %+v, want Two", tpl)
	}
}

func TestTemplate_JSON(t *testing.T) {
	var payload struct {
		Template Template `json:"template"`
	}
	if err := json.Unmarshal([]byte(`{"template":"multi-6x3"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Template.Frames != 6 || payload.Template.PerRow != 3 {
		t.Errorf("template = %+v", payload.Template)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"template":"multi-6x3"}` {
		t.Errorf("marshal = %s", data)
	}
	if err := json.Unmarshal([]byte(`{"template":"bogus"}`), &payload); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestTemplates_AllParse(t *testing.T) {
	for _, name := range Templates() {
		if _, err := ParseTemplate(name); err != nil {
			t.Errorf("ParseTemplate(%q): %v", name, err)
		}
	}
}
