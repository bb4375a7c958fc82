package dirs

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigPath(t *testing.T) {
	got, err := ConfigPath("/tmp/custom.yaml", "config.yaml")
	if err != nil || got != "/tmp/custom.yaml" {
		t.Errorf("Expected the custom path, got %q (%v)", got, err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	got, err = ConfigPath("", "config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(got) != "config.yaml" || !strings.Contains(got, appName) {
		t.Errorf("Unexpected default path %q", got)
	}
}
