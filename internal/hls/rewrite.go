// Package hls rewrites remote media playlists into absolute form and serves
// them, together with a synthetic master playlist and subtitle playlists, to
// a player.
package hls

import (
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/bugmaschine/rzk/internal/models"
)

const (
	durationDirective = "#EXTINF:"
	subtitleGroup     = "subs"
	// Nominal bandwidth of the single advertised variant.
	streamBandwidth = 1280000
)

// Playlist is a media playlist whose segment references are absolute.
type Playlist struct {
	Body string
	// Duration is the sum of all segment durations in seconds.
	Duration float64
	Segments int
}

// BaseDirectory returns manifestURL without query and fragment, cut after
// the last slash.
func BaseDirectory(manifestURL string) (string, error) {
	base, _, _ := strings.Cut(manifestURL, "#")
	base, _, _ = strings.Cut(base, "?")
	i := strings.LastIndex(base, "/")
	if i < 0 {
		return "", fmt.Errorf("manifest url %q has no directory", manifestURL)
	}
	return base[:i+1], nil
}

// RewriteMediaPlaylist prefixes the reference line following every duration
// directive with the directory of manifestURL and sums the durations. Tag
// and blank lines between a directive and its reference are skipped over.
// All other lines are kept verbatim. A duration that is not a number counts
// as zero.
func RewriteMediaPlaylist(body, manifestURL string) (Playlist, error) {
	base, err := BaseDirectory(manifestURL)
	if err != nil {
		return Playlist{}, err
	}

	lines := strings.Split(body, "\n")
	result := Playlist{}
	pending := false
	for i, line := range lines {
		if strings.HasPrefix(line, durationDirective) {
			result.Segments++
			result.Duration += segmentDuration(line)
			pending = true
			continue
		}
		if !pending || isTagOrBlank(line) {
			continue
		}
		lines[i] = absoluteReference(base, line)
		pending = false
	}
	result.Body = strings.Join(lines, "\n")
	return result, nil
}

func isTagOrBlank(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

func segmentDuration(line string) float64 {
	token, _, _ := strings.Cut(strings.TrimPrefix(line, durationDirective), ",")
	d, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) {
		slog.Debug("Ignoring segment with unparsable duration", "line", line)
		return 0
	}
	return d
}

// absoluteReference resolves ref against base. Absolute references stay as
// they are and host relative ones keep only the host of base.
func absoluteReference(base, ref string) string {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ref
	}
	if u, err := url.Parse(trimmed); err == nil && u.IsAbs() {
		return ref
	}
	if strings.HasPrefix(trimmed, "/") {
		if b, err := url.Parse(base); err == nil {
			if r, err := url.Parse(trimmed); err == nil {
				return b.ResolveReference(r).String()
			}
		}
	}
	return base + ref
}

// Addresser names the resources a master playlist points at.
type Addresser interface {
	Main() string
	Fragments() string
	Subtitle(language string) string
}

// SchemeAddresser uses the in-process virtual schemes main://,
// fragments:// and subtitles://.
type SchemeAddresser struct{}

func (SchemeAddresser) Main() string      { return schemeMain + "://playlist.m3u8" }
func (SchemeAddresser) Fragments() string { return schemeFragments + "://playlist.m3u8" }
func (SchemeAddresser) Subtitle(language string) string {
	return schemeSubtitles + "://" + language
}

// HTTPAddresser points at the routes of Handler mounted at Base.
type HTTPAddresser struct {
	Base string
}

func (a HTTPAddresser) Main() string      { return strings.TrimSuffix(a.Base, "/") + "/main.m3u8" }
func (a HTTPAddresser) Fragments() string { return strings.TrimSuffix(a.Base, "/") + "/fragments.m3u8" }
func (a HTTPAddresser) Subtitle(language string) string {
	return strings.TrimSuffix(a.Base, "/") + "/subtitles/" + url.PathEscape(language) + ".m3u8"
}

// MasterPlaylist advertises one variant and, if there are tracks, one
// subtitle rendition per track.
func MasterPlaylist(tracks []models.SubtitleTrack, addr Addresser) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, t := range tracks {
		fmt.Fprintf(&b, "#EXT-X-MEDIA:TYPE=SUBTITLES,GROUP-ID=%q,NAME=%q,LANGUAGE=%q,AUTOSELECT=YES,DEFAULT=NO,FORCED=NO,URI=%q\n",
			subtitleGroup, t.Name, t.Language, addr.Subtitle(t.Language))
	}
	if len(tracks) > 0 {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,SUBTITLES=%q\n", streamBandwidth, subtitleGroup)
	} else {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d\n", streamBandwidth)
	}
	b.WriteString(addr.Fragments())
	b.WriteString("\n")
	return b.String()
}

// SubtitlePlaylist is a single segment VOD playlist covering duration seconds.
func SubtitlePlaylist(link string, duration float64) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:1\n")
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	b.WriteString("#EXT-X-ALLOW-CACHE:NO\n")
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", int(math.Ceil(duration)))
	fmt.Fprintf(&b, "#EXTINF:%.3f, no desc\n", duration)
	b.WriteString(link)
	b.WriteString("\n")
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}
