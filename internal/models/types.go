// Package models holds the records the extractors produce.
//
// Every record carries the site's natural key plus a LocalID generated at
// extraction time, so list views can diff records that share a site ID
// (the same movie in two bookmark folders, for example).
package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

type CategoryType int

const (
	CategoryUnspecified CategoryType = iota
	CategoryFilms
	CategorySeries
	CategoryCartoons
	CategoryAnimation
)

var categorySlugs = map[string]CategoryType{
	"films":     CategoryFilms,
	"series":    CategorySeries,
	"cartoons":  CategoryCartoons,
	"animation": CategoryAnimation,
}

// ParseCategoryType maps a URL slug or a css class to a category.
func ParseCategoryType(slug string) CategoryType {
	return categorySlugs[slug]
}

func (c CategoryType) Slug() string {
	switch c {
	case CategoryFilms:
		return "films"
	case CategorySeries:
		return "series"
	case CategoryCartoons:
		return "cartoons"
	case CategoryAnimation:
		return "animation"
	default:
		return ""
	}
}

// DisplayName is the localized label shown for a category.
func (c CategoryType) DisplayName() string {
	switch c {
	case CategoryFilms:
		return "Фильмы"
	case CategorySeries:
		return "Сериалы"
	case CategoryCartoons:
		return "Мультфильмы"
	case CategoryAnimation:
		return "Аниме"
	default:
		return "Другое"
	}
}

func (c CategoryType) String() string {
	if s := c.Slug(); s != "" {
		return s
	}
	return "unspecified"
}

func (c CategoryType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// MovieSimple is a movie as shown in listings, search results and bookmarks.
type MovieSimple struct {
	LocalID  uuid.UUID    `json:"local_id"`
	ID       int          `json:"id"`
	URL      string       `json:"url"`
	Title    string       `json:"title"`
	Poster   string       `json:"poster,omitempty"`
	Info     string       `json:"info,omitempty"`
	Details  string       `json:"details,omitempty"`
	Category CategoryType `json:"category"`
}

// VotesUnknown marks a vote count the page shows but not as a number.
const VotesUnknown = -1

// Rating holds a site rating. Value is NaN when the text was not numeric.
type Rating struct {
	Source string  `json:"source"`
	Value  float64 `json:"value"`
	Votes  int     `json:"votes"`
}

func (r Rating) IsEmpty() bool {
	return math.IsNaN(r.Value)
}

// MarshalJSON writes a NaN value as null.
func (r Rating) MarshalJSON() ([]byte, error) {
	var value *float64
	if !r.IsEmpty() {
		value = &r.Value
	}
	var votes *int
	if r.Votes != VotesUnknown {
		votes = &r.Votes
	}
	return json.Marshal(struct {
		Source string   `json:"source"`
		Value  *float64 `json:"value"`
		Votes  *int     `json:"votes"`
	}{r.Source, value, votes})
}

func (r Rating) String() string {
	if r.IsEmpty() {
		return fmt.Sprintf("%s: -", r.Source)
	}
	if r.Votes == VotesUnknown {
		return fmt.Sprintf("%s: %.1f (?)", r.Source, r.Value)
	}
	return fmt.Sprintf("%s: %.1f (%d)", r.Source, r.Value, r.Votes)
}

// MovieDetailed is the content of a movie page.
type MovieDetailed struct {
	LocalID       uuid.UUID     `json:"local_id"`
	ID            int           `json:"id"`
	URL           string        `json:"url"`
	Title         string        `json:"title"`
	OriginalTitle *string       `json:"original_title,omitempty"`
	Description   string        `json:"description"`
	Poster        string        `json:"poster"`
	Year          int           `json:"year,omitempty"`
	Ratings       []Rating      `json:"ratings,omitempty"`
	Category      CategoryType  `json:"category"`
	Series        bool          `json:"series"`
	VoiceActings  []VoiceActing `json:"voice_actings,omitempty"`
	Seasons       []Season      `json:"seasons,omitempty"`
	ComingSoon    bool          `json:"coming_soon"`
	// Translator and episode the player preselects for this page.
	Default StreamSelection `json:"default"`
}

type StreamSelection struct {
	TranslatorID int `json:"translator_id"`
	Season       int `json:"season,omitempty"`
	Episode      int `json:"episode,omitempty"`
}

type VoiceActing struct {
	LocalID   uuid.UUID `json:"local_id"`
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Language  string    `json:"language,omitempty"`
	Premium   bool      `json:"premium"`
	Camrip    bool      `json:"camrip"`
	Ads       bool      `json:"ads"`
	Director  bool      `json:"director"`
	IsDefault bool      `json:"is_default"`
}

type Season struct {
	LocalID  uuid.UUID `json:"local_id"`
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Episodes []Episode `json:"episodes"`
}

type Episode struct {
	LocalID uuid.UUID `json:"local_id"`
	ID      int       `json:"id"`
	Season  int       `json:"season"`
	Name    string    `json:"name"`
	Watched bool      `json:"watched"`
}

type BookmarkCategory struct {
	LocalID uuid.UUID `json:"local_id"`
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Count   int       `json:"count"`
}

type Comment struct {
	LocalID uuid.UUID `json:"local_id"`
	ID      int       `json:"id"`
	Author  string    `json:"author"`
	Avatar  string    `json:"avatar,omitempty"`
	Date    string    `json:"date"`
	Text    string    `json:"text"`
	Likes   int       `json:"likes"`
	Spoiler bool      `json:"spoiler"`
	Replies []Comment `json:"replies,omitempty"`
}

// CategoryGroup is one top level entry of the site navigation.
type CategoryGroup struct {
	LocalID uuid.UUID    `json:"local_id"`
	Type    CategoryType `json:"type"`
	Title   string       `json:"title"`
	URL     string       `json:"url"`
	Genres  []Genre      `json:"genres"`
}

type Genre struct {
	LocalID uuid.UUID `json:"local_id"`
	Name    string    `json:"name"`
	URL     string    `json:"url"`
}

// SubtitleTrack is one subtitle language offered for a stream.
type SubtitleTrack struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Link     string `json:"link"`
}

// Quality is one rendition of a stream. Links are alternatives for the same file.
type Quality struct {
	Label string   `json:"label"`
	Links []string `json:"links"`
}

// HLS returns the first HLS manifest link, if any.
func (q Quality) HLS() (string, bool) {
	for _, l := range q.Links {
		if IsManifestLink(l) {
			return l, true
		}
	}
	return "", false
}

type Stream struct {
	Qualities []Quality       `json:"qualities"`
	Subtitles []SubtitleTrack `json:"subtitles,omitempty"`
	Default   string          `json:"default_subtitle,omitempty"`
	Thumbnail string          `json:"thumbnails,omitempty"`
}

// Best returns the last listed quality, which the site orders ascending.
func (s Stream) Best() (Quality, bool) {
	if len(s.Qualities) == 0 {
		return Quality{}, false
	}
	return s.Qualities[len(s.Qualities)-1], true
}

// Subtitle looks a track up by language code.
func (s Stream) Subtitle(language string) (SubtitleTrack, bool) {
	for _, t := range s.Subtitles {
		if t.Language == language {
			return t, true
		}
	}
	return SubtitleTrack{}, false
}
