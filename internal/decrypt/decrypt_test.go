package decrypt

import (
	"encoding/base64"
	"strings"
	"testing"
)

const plainLink = "https://host/video.mp4"

func encoded() string {
	return base64.StdEncoding.EncodeToString([]byte(plainLink))
}

func TestDecryptWithoutMarker(t *testing.T) {
	tests := []string{
		"",
		"h",
		"https://host/video.mp4",
		"aHR0cHM6Ly9ob3N0",
		"//_//QEA=",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if got := Decrypt(input); got != input {
				t.Errorf("Decrypt(%q) = %q, expected input back", input, got)
			}
		})
	}
}

func TestDecryptWithoutSeparator(t *testing.T) {
	d := NewDecoder()
	got := d.Decode("#h" + encoded())
	if got != plainLink {
		t.Errorf("got %q, expected %q", got, plainLink)
	}
	if d.Resolutions() != 1 {
		t.Errorf("expected a single resolution, got %d", d.Resolutions())
	}
}

func TestDecryptMalformedBase64(t *testing.T) {
	tests := []string{"#abc", "#h!!!", "#hQEA"}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if got := Decrypt(input); got != "" {
				t.Errorf("Decrypt(%q) = %q, expected empty string", input, got)
			}
		})
	}
}

func TestDecryptStripsTrash(t *testing.T) {
	b := encoded()
	tokens := TrashTokens()

	tests := []struct {
		name    string
		payload string
	}{
		{"two symbol token", "#h" + b[:8] + separator + "QEA=" + b[8:]},
		{"other two symbol token", "#h" + b[:4] + separator + "Xl4=" + b[4:]},
		{"three symbol token", "#h" + b[:12] + separator + tokens[25] + b[12:]},
		{"two separators", "#h" + b[:4] + separator + "IyM=" + b[4:10] + separator + "JCQ=" + b[10:]},
		{"adjacent separators", "#h" + b[:6] + separator + "ISE=" + separator + "QEA=" + b[6:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decrypt(tt.payload); got != plainLink {
				t.Errorf("Decrypt(%q) = %q, expected %q", tt.payload, got, plainLink)
			}
		})
	}
}

func TestTrashTokens(t *testing.T) {
	tokens := TrashTokens()
	if len(tokens) != 25+125 {
		t.Fatalf("expected 150 tokens, got %d", len(tokens))
	}
	if tokens[0] != "QEA=" {
		t.Errorf("first token = %q, expected base64 of @@", tokens[0])
	}
	if tokens[25] != "QEBA" {
		t.Errorf("first three symbol token = %q, expected base64 of @@@", tokens[25])
	}
}

func TestDecoderMemoizes(t *testing.T) {
	const n = 8
	b := encoded()

	var sb strings.Builder
	sb.WriteString("#h")
	for i := 0; i < n; i++ {
		sb.WriteString(b[i*2 : i*2+2])
		sb.WriteString(separator)
		sb.WriteString("QEA=")
	}
	sb.WriteString(b[n*2:])

	d := NewDecoder()
	if got := d.Decode(sb.String()); got != plainLink {
		t.Fatalf("got %q, expected %q", got, plainLink)
	}

	// Every reachable string is the payload with some subset of the
	// separators removed, so the cache bounds work to 2^n resolutions.
	if d.Resolutions() > 1<<n {
		t.Errorf("expected at most %d resolutions, got %d", 1<<n, d.Resolutions())
	}

	before := d.Resolutions()
	d.Decode(sb.String())
	if d.Resolutions() != before {
		t.Errorf("expected cached decode to resolve nothing new, got %d more", d.Resolutions()-before)
	}
}

func TestResolvePicksShortestCandidate(t *testing.T) {
	d := NewDecoder()
	// Only the text up to the first boundary after a separator is cleaned.
	got := d.resolve("ab" + separator + "QEA=cd")
	if got != "abcd" {
		t.Errorf("resolve = %q, expected abcd", got)
	}

	got = d.resolve("xy" + separator + "zz")
	if got != "xyzz" {
		t.Errorf("resolve = %q, expected xyzz", got)
	}
}
