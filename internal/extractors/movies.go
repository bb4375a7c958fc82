package extractors

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bugmaschine/rzk/internal/models"
	"github.com/google/uuid"
)

// Movies parses a listing page: search results, category pages, collections
// and bookmark folders all share the same item markup. An item without its
// id, link or title fails the whole page.
func (x *Extractor) Movies(html string) ([]models.MovieSimple, error) {
	page, err := x.Check(html)
	if err != nil {
		return nil, err
	}
	return x.movieItems(page.Doc.Find("div.b-content__inline_item"))
}

func (x *Extractor) movieItems(items *goquery.Selection) ([]models.MovieSimple, error) {
	movies := make([]models.MovieSimple, 0, items.Length())
	var failed error
	items.EachWithBreak(func(i int, s *goquery.Selection) bool {
		movie, err := x.movieItem(s)
		if err != nil {
			failed = err
			return false
		}
		movies = append(movies, movie)
		return true
	})
	if failed != nil {
		return nil, failed
	}
	return movies, nil
}

func (x *Extractor) movieItem(s *goquery.Selection) (models.MovieSimple, error) {
	id, err := x.intAttr(s, "data-id")
	if err != nil {
		return models.MovieSimple{}, err
	}

	link := s.Find("div.b-content__inline_item-link a")
	title, err := x.text(link)
	if err != nil {
		return models.MovieSimple{}, err
	}

	url, ok := s.Attr("data-url")
	if !ok || url == "" {
		if url, err = x.attr(link, "href"); err != nil {
			return models.MovieSimple{}, err
		}
	}

	movie := models.MovieSimple{
		LocalID:  uuid.New(),
		ID:       id,
		URL:      x.absolute(url),
		Title:    title,
		Category: categoryFromClasses(s.Find("span.cat")),
	}
	if poster, ok := s.Find("div.b-content__inline_item-cover img").Attr("src"); ok {
		movie.Poster = poster
	}
	if info := optionalText(s.Find("span.info")); info != nil {
		movie.Info = *info
	}
	if details := optionalText(s.Find("div.b-content__inline_item-link div")); details != nil {
		movie.Details = *details
	}
	return movie, nil
}

// categoryFromClasses reads the category from markup like <span class="cat series">.
func categoryFromClasses(sel *goquery.Selection) models.CategoryType {
	classes, _ := sel.Attr("class")
	for _, c := range strings.Fields(classes) {
		if t := models.ParseCategoryType(c); t != models.CategoryUnspecified {
			return t
		}
	}
	return models.CategoryUnspecified
}

// Years returns the release years offered by the listing filter.
// Options that are not a year, like "any year", are skipped.
func (x *Extractor) Years(html string) ([]int, error) {
	page, err := x.Check(html)
	if err != nil {
		return nil, err
	}

	var years []int
	page.Doc.Find(`select[name="year"] option`).Each(func(i int, s *goquery.Selection) {
		value, _ := s.Attr("value")
		year, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || year <= 0 {
			return
		}
		years = append(years, year)
	})
	return years, nil
}

func init() {
	Register(Kind{Name: "movies", Page: true, Parse: func(x *Extractor, input string) (any, error) {
		return x.Movies(input)
	}})
	Register(Kind{Name: "years", Page: true, Parse: func(x *Extractor, input string) (any, error) {
		return x.Years(input)
	}})
}
