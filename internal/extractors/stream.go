package extractors

import (
	"regexp"
	"strings"

	"github.com/bugmaschine/rzk/internal/decrypt"
	"github.com/bugmaschine/rzk/internal/models"
	"github.com/tidwall/gjson"
)

// [720p]https://a/720.mp4:hls:manifest.m3u8 or https://b/720.mp4,[1080p]...
var labeledRegex = regexp.MustCompile(`\[([^\]]+)\]([^\[]*)`)

// EpisodesResponse parses the answer of the get_episodes action, which
// carries the season tabs and episode lists of one translator as HTML.
func (x *Extractor) EpisodesResponse(input string) ([]models.Season, error) {
	fn := callerName(0)
	root, err := response(input, fn)
	if err != nil {
		return nil, err
	}
	seasonsHTML, err := stringParam(root, "seasons", fn)
	if err != nil {
		return nil, err
	}
	episodesHTML, err := stringParam(root, "episodes", fn)
	if err != nil {
		return nil, err
	}

	tabs, err := fragment(seasonsHTML)
	if err != nil {
		return nil, err
	}
	items, err := fragment(episodesHTML)
	if err != nil {
		return nil, err
	}
	return x.seasons(tabs.Find("li.b-simple_season__item"), items.Find("li.b-simple_episode__item"))
}

// StreamResponse parses the answer of the get_stream and get_movie actions.
// The url field is obfuscated and decrypted here. Subtitles whose name has no
// language code in subtitle_lns are dropped.
func (x *Extractor) StreamResponse(input string) (*models.Stream, error) {
	fn := callerName(0)
	root, err := response(input, fn)
	if err != nil {
		return nil, err
	}
	encrypted, err := stringParam(root, "url", fn)
	if err != nil {
		return nil, err
	}

	plain := decrypt.Decrypt(encrypted)
	if plain == "" {
		return nil, &ParseJSONError{Param: "url", Function: fn}
	}

	stream := &models.Stream{
		Qualities: qualities(plain),
	}
	if len(stream.Qualities) == 0 {
		return nil, &ParseJSONError{Param: "url", Function: fn}
	}

	// subtitle and subtitle_lns are false when the stream has none.
	if sub := root.Get("subtitle"); sub.Type == gjson.String {
		languages := root.Get("subtitle_lns")
		if !languages.IsObject() {
			return nil, &ParseJSONError{Param: "subtitle_lns", Function: fn}
		}
		stream.Subtitles = subtitles(sub.String(), languages)
	}
	if def := root.Get("subtitle_def"); def.Type == gjson.String {
		stream.Default = def.String()
	}
	if thumbnails := root.Get("thumbnails"); thumbnails.Type == gjson.String {
		stream.Thumbnail = x.absolute(thumbnails.String())
	}
	return stream, nil
}

func qualities(plain string) []models.Quality {
	var result []models.Quality
	for _, m := range labeledRegex.FindAllStringSubmatch(plain, -1) {
		var links []string
		for _, link := range strings.Split(strings.TrimSuffix(strings.TrimSpace(m[2]), ","), " or ") {
			if link = strings.TrimSpace(link); link != "" {
				links = append(links, link)
			}
		}
		if len(links) == 0 {
			continue
		}
		result = append(result, models.Quality{Label: m[1], Links: links})
	}
	return result
}

func subtitles(raw string, languages gjson.Result) []models.SubtitleTrack {
	codes := make(map[string]string)
	languages.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			codes[key.String()] = value.String()
		}
		return true
	})

	var tracks []models.SubtitleTrack
	for _, m := range labeledRegex.FindAllStringSubmatch(raw, -1) {
		name := m[1]
		link := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[2]), ","))
		code := codes[name]
		if code == "" || link == "" {
			continue
		}
		tracks = append(tracks, models.SubtitleTrack{Name: name, Language: code, Link: link})
	}
	return tracks
}

func init() {
	Register(Kind{Name: "episodes", Parse: func(x *Extractor, input string) (any, error) {
		return x.EpisodesResponse(input)
	}})
	Register(Kind{Name: "stream", Parse: func(x *Extractor, input string) (any, error) {
		return x.StreamResponse(input)
	}})
}
