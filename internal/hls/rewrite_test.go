package hls

import (
	"strings"
	"testing"

	"github.com/bugmaschine/rzk/internal/models"
)

func TestRewriteMediaPlaylist(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		manifestURL string
		expected    string
		duration    float64
		segments    int
	}{
		{
			name:        "relative segments with query",
			body:        "#EXTINF:10.0,\nseg1.ts\n#EXTINF:5.0,\nseg2.ts",
			manifestURL: "http://host/path/index.m3u8?x=1",
			expected:    "#EXTINF:10.0,\nhttp://host/path/seg1.ts\n#EXTINF:5.0,\nhttp://host/path/seg2.ts",
			duration:    15.0,
			segments:    2,
		},
		{
			name:        "tags pass through",
			body:        "#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXTINF:6.006,\nchunk-0.ts?t=1\n#EXT-X-ENDLIST\n",
			manifestURL: "https://cdn/a/b/hls.m3u8#frag",
			expected:    "#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXTINF:6.006,\nhttps://cdn/a/b/chunk-0.ts?t=1\n#EXT-X-ENDLIST\n",
			duration:    6.006,
			segments:    1,
		},
		{
			name:        "absolute segment untouched",
			body:        "#EXTINF:4,\nhttps://other/seg.ts\n#EXTINF:4,\nlocal.ts",
			manifestURL: "https://cdn/x/index.m3u8",
			expected:    "#EXTINF:4,\nhttps://other/seg.ts\n#EXTINF:4,\nhttps://cdn/x/local.ts",
			duration:    8,
			segments:    2,
		},
		{
			name:        "host relative segment",
			body:        "#EXTINF:3.5,\n/root/seg.ts",
			manifestURL: "https://cdn/x/index.m3u8",
			expected:    "#EXTINF:3.5,\nhttps://cdn/root/seg.ts",
			duration:    3.5,
			segments:    1,
		},
		{
			name:        "unparsable duration counts as zero",
			body:        "#EXTINF:abc,\nseg1.ts\n#EXTINF:2.5,title\nseg2.ts",
			manifestURL: "http://host/index.m3u8",
			expected:    "#EXTINF:abc,\nhttp://host/seg1.ts\n#EXTINF:2.5,title\nhttp://host/seg2.ts",
			duration:    2.5,
			segments:    2,
		},
		{
			name:        "adjacent duration directives",
			body:        "#EXTINF:10.0,\n#EXTINF:5.0,\nseg2.ts",
			manifestURL: "http://host/p/index.m3u8",
			expected:    "#EXTINF:10.0,\n#EXTINF:5.0,\nhttp://host/p/seg2.ts",
			duration:    15.0,
			segments:    2,
		},
		{
			name:        "tag between directive and segment",
			body:        "#EXTINF:10.0,\n#EXT-X-BYTERANGE:100@0\nseg1.ts\n#EXTINF:4,\n\nseg2.ts\nfree.ts",
			manifestURL: "http://host/p/index.m3u8",
			expected:    "#EXTINF:10.0,\n#EXT-X-BYTERANGE:100@0\nhttp://host/p/seg1.ts\n#EXTINF:4,\n\nhttp://host/p/seg2.ts\nfree.ts",
			duration:    14.0,
			segments:    2,
		},
		{
			name:        "no segments",
			body:        "#EXTM3U\n#EXT-X-ENDLIST",
			manifestURL: "http://host/index.m3u8",
			expected:    "#EXTM3U\n#EXT-X-ENDLIST",
			duration:    0,
			segments:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteMediaPlaylist(tt.body, tt.manifestURL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Body != tt.expected {
				t.Errorf("\nInput:    %q\nExpected: %q\nGot:      %q", tt.body, tt.expected, got.Body)
			}
			if got.Duration != tt.duration {
				t.Errorf("Expected duration %v, got %v", tt.duration, got.Duration)
			}
			if got.Segments != tt.segments {
				t.Errorf("Expected %d segments, got %d", tt.segments, got.Segments)
			}
		})
	}
}

func TestRewritePreservesLineCount(t *testing.T) {
	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n")
	for i := 0; i < 50; i++ {
		b.WriteString("#EXTINF:2.0,\n")
		b.WriteString("seg.ts\n")
	}
	b.WriteString("#EXT-X-ENDLIST")
	body := b.String()

	got, err := RewriteMediaPlaylist(body, "http://host/p/index.m3u8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := strings.Split(body, "\n")
	out := strings.Split(got.Body, "\n")
	if len(in) != len(out) {
		t.Fatalf("Expected %d lines, got %d", len(in), len(out))
	}
	changed := 0
	for i := range in {
		if in[i] != out[i] {
			changed++
			if in[i-1] != "#EXTINF:2.0," {
				t.Errorf("Line %d changed but does not follow a duration directive", i)
			}
		}
	}
	if changed != 50 || got.Segments != 50 {
		t.Errorf("Expected 50 rewritten lines, got %d (segments %d)", changed, got.Segments)
	}
	if got.Duration != 100 {
		t.Errorf("Expected duration 100, got %v", got.Duration)
	}
}

func TestRewriteInvalidManifestURL(t *testing.T) {
	if _, err := RewriteMediaPlaylist("#EXTINF:1,\na.ts", "index.m3u8"); err == nil {
		t.Errorf("Expected an error for a manifest url without directory")
	}
}

func TestMasterPlaylist(t *testing.T) {
	tracks := []models.SubtitleTrack{
		{Name: "English", Language: "en", Link: "http://host/en.vtt"},
		{Name: "Русский", Language: "ru", Link: "http://host/ru.vtt"},
	}

	got := MasterPlaylist(tracks, SchemeAddresser{})
	expected := "#EXTM3U\n" +
		`#EXT-X-MEDIA:TYPE=SUBTITLES,GROUP-ID="subs",NAME="English",LANGUAGE="en",AUTOSELECT=YES,DEFAULT=NO,FORCED=NO,URI="subtitles://en"` + "\n" +
		`#EXT-X-MEDIA:TYPE=SUBTITLES,GROUP-ID="subs",NAME="Русский",LANGUAGE="ru",AUTOSELECT=YES,DEFAULT=NO,FORCED=NO,URI="subtitles://ru"` + "\n" +
		`#EXT-X-STREAM-INF:BANDWIDTH=1280000,SUBTITLES="subs"` + "\n" +
		"fragments://playlist.m3u8\n"
	if got != expected {
		t.Errorf("\nExpected:\n%s\nGot:\n%s", expected, got)
	}

	bare := MasterPlaylist(nil, HTTPAddresser{Base: "http://127.0.0.1:8080/"})
	expected = "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1280000\nhttp://127.0.0.1:8080/fragments.m3u8\n"
	if bare != expected {
		t.Errorf("\nExpected:\n%s\nGot:\n%s", expected, bare)
	}
}

func TestSubtitlePlaylist(t *testing.T) {
	got := SubtitlePlaylist("http://host/sub.vtt", 15.0)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")

	expected := []string{
		"#EXTM3U",
		"#EXT-X-VERSION:3",
		"#EXT-X-MEDIA-SEQUENCE:1",
		"#EXT-X-PLAYLIST-TYPE:VOD",
		"#EXT-X-ALLOW-CACHE:NO",
		"#EXT-X-TARGETDURATION:15",
		"#EXTINF:15.000, no desc",
		"http://host/sub.vtt",
		"#EXT-X-ENDLIST",
	}
	if len(lines) != len(expected) {
		t.Fatalf("Expected %d lines, got %d:\n%s", len(expected), len(lines), got)
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("Line %d: expected %q, got %q", i, expected[i], lines[i])
		}
	}

	if !strings.Contains(SubtitlePlaylist("x", 10.4), "#EXT-X-TARGETDURATION:11\n") {
		t.Errorf("Expected the target duration to round up")
	}
}

func TestParseResource(t *testing.T) {
	tests := []struct {
		input    string
		expected Resource
		err      bool
	}{
		{"main://playlist.m3u8", Resource{Kind: ResourceMain}, false},
		{"fragments://playlist.m3u8", Resource{Kind: ResourceFragments}, false},
		{"subtitles://en", Resource{Kind: ResourceSubtitle, Language: "en"}, false},
		{"subtitles://", Resource{}, true},
		{"https://host/index.m3u8", Resource{}, true},
		{"index.m3u8", Resource{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseResource(tt.input)
			if (err != nil) != tt.err {
				t.Fatalf("Input: %s, expected error %v, got %v", tt.input, tt.err, err)
			}
			if got != tt.expected {
				t.Errorf("\nInput:    %s\nExpected: %+v\nGot:      %+v", tt.input, tt.expected, got)
			}
		})
	}
}
