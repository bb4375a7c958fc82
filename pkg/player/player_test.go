package player

import (
	"slices"
	"testing"
)

func TestArgs(t *testing.T) {
	m := Media{URL: "http://127.0.0.1:8080/main.m3u8", Title: "Во все тяжкие", Referer: "https://rezka.ag/"}

	tests := []struct {
		player   string
		expected []string
	}{
		{"mpv", []string{m.URL, "--referrer=https://rezka.ag/", "--force-media-title=Во все тяжкие"}},
		{"/usr/bin/mpv", []string{m.URL, "--referrer=https://rezka.ag/", "--force-media-title=Во все тяжкие"}},
		{"iina", []string{"--no-stdin", "--keep-running", "--mpv-referrer=https://rezka.ag/", m.URL, "--mpv-force-media-title=Во все тяжкие"}},
		{"vlc", []string{m.URL}},
	}

	for _, tt := range tests {
		if got := Args(tt.player, m); !slices.Equal(got, tt.expected) {
			t.Errorf("\nInput:    %s\nExpected: %q\nGot:      %q", tt.player, tt.expected, got)
		}
	}

	if got := Args("mpv", Media{URL: "u"}); !slices.Equal(got, []string{"u"}) {
		t.Errorf("Expected only the URL without title and referer, got %q", got)
	}
}
