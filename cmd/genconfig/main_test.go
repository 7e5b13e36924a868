package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"tools.zach/dev/richcord/internal/config"
)

func TestSectionName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"afk", "Afk"},
		{"behavior", "Behavior"},
		{"display.assets", "Assets"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sectionName(tt.in); got != tt.want {
			t.Errorf("sectionName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRender_RoundTrips(t *testing.T) {
	text, err := render(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	got := config.DefaultConfig()
	if _, err := toml.Decode(text, got); err != nil {
		t.Fatalf("rendered config does not parse: %v\n%s", err, text)
	}
	if !reflect.DeepEqual(got, config.ExampleConfig()) {
		t.Fatalf("rendered config decodes to %+v", got)
	}
}

func TestRender_Annotations(t *testing.T) {
	text, err := render(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"# richcord Configuration",
		"# ///// Discord /////",
		"# Seconds to wait between connect attempts.\nretry_interval_seconds = 5",
		"state = \"Idle for %d minutes\"\n# state = \"Be right back\"",
		"# level = \"debug\"",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered config missing %q", want)
		}
	}
}

func TestRender_OmittedKeysCommented(t *testing.T) {
	docs := map[string]config.FieldDoc{
		"log":             {},
		"log.level":       {},
		"log.max_size_mb": {},
		"log.file":        {Comment: "Log file override.", Alternatives: []string{`file = "/tmp/rc.log"`}},
	}
	text, err := render(config.DefaultConfig(), docs)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(text, "# Log file override.\n# file = \"/tmp/rc.log\"") {
		t.Fatalf("omitted key not injected:\n%s", text)
	}
}
