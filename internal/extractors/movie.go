package extractors

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bugmaschine/rzk/internal/models"
	"github.com/bugmaschine/rzk/pkg/utils"
	"github.com/google/uuid"
)

var (
	// sof.tv.initCDNSeriesEvents(id, translator, season, episode, ...)
	seriesEventsRegex = regexp.MustCompile(`initCDNSeriesEvents\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)`)
	// sof.tv.initCDNMoviesEvents(id, translator, ...)
	moviesEventsRegex = regexp.MustCompile(`initCDNMoviesEvents\(\s*(\d+)\s*,\s*(\d+)`)
	yearRegex         = regexp.MustCompile(`/year/(\d{4})/`)
)

// Movie parses a movie page.
func (x *Extractor) Movie(html string) (*models.MovieDetailed, error) {
	page, err := x.Check(html)
	if err != nil {
		return nil, err
	}
	doc := page.Doc
	content := doc.Find("div.b-content__main")

	id, err := x.intAttr(doc.Find("#post_id"), "value")
	if err != nil {
		return nil, err
	}
	title, err := x.text(content.Find(".b-post__title h1"))
	if err != nil {
		return nil, err
	}
	poster, err := x.attr(content.Find(".b-sidecover img"), "src")
	if err != nil {
		return nil, err
	}
	description := content.Find(".b-post__description_text")
	if description.Length() == 0 {
		return nil, x.null(0)
	}

	movie := &models.MovieDetailed{
		LocalID:       uuid.New(),
		ID:            id,
		Title:         title,
		OriginalTitle: optionalText(content.Find(".b-post__origtitle")),
		Description:   utils.CollapseSpace(description.Text()),
		Poster:        poster,
		Ratings:       ratings(content.Find(".b-post__info_rates")),
	}

	if u, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok {
		movie.URL = u
		if link, err := models.ParseLink(u); err == nil {
			movie.Category = link.Category
		}
	}
	if t, ok := doc.Find(`meta[property="og:type"]`).Attr("content"); ok {
		movie.Series = t == "video.tv_series"
	}
	if href, ok := content.Find(`.b-post__info a[href*="/year/"]`).Attr("href"); ok {
		if m := yearRegex.FindStringSubmatch(href); m != nil {
			movie.Year, _ = strconv.Atoi(m[1])
		}
	}

	source, _ := doc.Html()
	movie.Default, movie.ComingSoon = defaultSelection(source)

	movie.VoiceActings = x.voiceActings(doc, movie.Default.TranslatorID)
	if movie.Series {
		movie.Seasons, err = x.seasons(doc.Find("#simple-seasons-tabs li.b-simple_season__item"), doc.Find("#simple-episodes-tabs li.b-simple_episode__item"))
		if err != nil {
			return nil, err
		}
	}

	return movie, nil
}

// ratings reads the rating blocks. A value that is not a number becomes NaN
// and a vote count that is not a number VotesUnknown; missing votes count as
// zero.
func ratings(blocks *goquery.Selection) []models.Rating {
	var result []models.Rating
	blocks.Each(func(i int, s *goquery.Selection) {
		classes, _ := s.Attr("class")
		source := ""
		for _, c := range strings.Fields(classes) {
			if c != "b-post__info_rates" {
				source = c
			}
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(s.Find(".bold").First().Text()), 64)
		if err != nil {
			value = math.NaN()
		}
		votes := 0
		if count := s.Find("i").First(); count.Length() > 0 {
			n, err := strconv.Atoi(utils.Digits(count.Text()))
			if err != nil {
				n = models.VotesUnknown
			}
			votes = n
		}

		result = append(result, models.Rating{Source: source, Value: value, Votes: votes})
	})
	return result
}

// defaultSelection reads the player init call. A page without one has no
// player yet.
func defaultSelection(source string) (models.StreamSelection, bool) {
	if m := seriesEventsRegex.FindStringSubmatch(source); m != nil {
		translator, _ := strconv.Atoi(m[2])
		season, _ := strconv.Atoi(m[3])
		episode, _ := strconv.Atoi(m[4])
		return models.StreamSelection{TranslatorID: translator, Season: season, Episode: episode}, false
	}
	if m := moviesEventsRegex.FindStringSubmatch(source); m != nil {
		translator, _ := strconv.Atoi(m[2])
		return models.StreamSelection{TranslatorID: translator}, false
	}
	return models.StreamSelection{}, true
}

// voiceActings reads the translator list. Entries without a translator id are
// dropped. Pages with a single translation have no list; the default
// translator from the player init call is used instead.
func (x *Extractor) voiceActings(doc *goquery.Document, defaultID int) []models.VoiceActing {
	var actings []models.VoiceActing
	doc.Find("#translators-list > li").Each(func(i int, s *goquery.Selection) {
		idStr, _ := s.Attr("data-translator_id")
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil {
			return
		}

		name := utils.CollapseSpace(s.Text())
		if name == "" {
			name, _ = s.Attr("title")
		}
		acting := models.VoiceActing{
			LocalID:   uuid.New(),
			ID:        id,
			Name:      name,
			Premium:   s.HasClass("b-prem_translator"),
			Camrip:    boolAttr(s, "data-camrip"),
			Ads:       boolAttr(s, "data-ads"),
			Director:  boolAttr(s, "data-director"),
			IsDefault: s.HasClass("active") || id == defaultID,
		}
		if lang, ok := s.Find("img").Attr("title"); ok {
			acting.Language = lang
		}
		actings = append(actings, acting)
	})

	if len(actings) == 0 && defaultID > 0 {
		name := "Default"
		doc.Find(".b-post__info tr").Each(func(i int, s *goquery.Selection) {
			text := utils.CollapseSpace(s.Text())
			if _, after, ok := strings.Cut(text, "В переводе:"); ok {
				name = strings.TrimSpace(after)
			}
		})
		actings = append(actings, models.VoiceActing{
			LocalID:   uuid.New(),
			ID:        defaultID,
			Name:      name,
			IsDefault: true,
		})
	}
	return actings
}

// seasons pairs season tabs with their episodes. A season or episode without
// its ids fails the whole list.
func (x *Extractor) seasons(tabs, items *goquery.Selection) ([]models.Season, error) {
	var seasons []models.Season
	index := make(map[int]int)
	var failed error

	tabs.EachWithBreak(func(i int, s *goquery.Selection) bool {
		id, err := x.intAttr(s, "data-tab_id")
		if err != nil {
			failed = err
			return false
		}
		index[id] = len(seasons)
		seasons = append(seasons, models.Season{
			LocalID: uuid.New(),
			ID:      id,
			Name:    utils.CollapseSpace(s.Text()),
		})
		return true
	})
	if failed != nil {
		return nil, failed
	}

	items.EachWithBreak(func(i int, s *goquery.Selection) bool {
		seasonID, err := x.intAttr(s, "data-season_id")
		if err != nil {
			failed = err
			return false
		}
		episodeID, err := x.intAttr(s, "data-episode_id")
		if err != nil {
			failed = err
			return false
		}

		// Single season shows may come without season tabs.
		pos, ok := index[seasonID]
		if !ok {
			pos = len(seasons)
			index[seasonID] = pos
			seasons = append(seasons, models.Season{LocalID: uuid.New(), ID: seasonID, Name: "Сезон " + strconv.Itoa(seasonID)})
		}
		seasons[pos].Episodes = append(seasons[pos].Episodes, models.Episode{
			LocalID: uuid.New(),
			ID:      episodeID,
			Season:  seasonID,
			Name:    utils.CollapseSpace(s.Text()),
			Watched: s.HasClass("watched"),
		})
		return true
	})
	if failed != nil {
		return nil, failed
	}
	return seasons, nil
}

func init() {
	Register(Kind{Name: "movie", Page: true, Parse: func(x *Extractor, input string) (any, error) {
		return x.Movie(input)
	}})
}
