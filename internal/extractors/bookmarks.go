package extractors

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/bugmaschine/rzk/internal/models"
	"github.com/google/uuid"
)

// BookmarkCategories parses the folders of the favorites page. A folder
// without id or name fails the page. The counter may be missing for an empty
// folder, but a counter that is not a number is an error.
func (x *Extractor) BookmarkCategories(html string) ([]models.BookmarkCategory, error) {
	page, err := x.Check(html)
	if err != nil {
		return nil, err
	}

	var categories []models.BookmarkCategory
	var failed error
	page.Doc.Find("div.b-favorites_content__cats_list_item").EachWithBreak(func(i int, s *goquery.Selection) bool {
		category, err := x.bookmarkCategory(s)
		if err != nil {
			failed = err
			return false
		}
		categories = append(categories, category)
		return true
	})
	if failed != nil {
		return nil, failed
	}
	return categories, nil
}

func (x *Extractor) bookmarkCategory(s *goquery.Selection) (models.BookmarkCategory, error) {
	id, err := x.intAttr(s, "data-cat_id")
	if err != nil {
		return models.BookmarkCategory{}, err
	}
	name, err := x.text(s.Find(".name"))
	if err != nil {
		return models.BookmarkCategory{}, err
	}

	count := 0
	if counter := s.Find(".num-holder"); counter.Length() > 0 {
		if count, err = x.digits(counter); err != nil {
			return models.BookmarkCategory{}, err
		}
	}

	return models.BookmarkCategory{
		LocalID: uuid.New(),
		ID:      id,
		Name:    name,
		Count:   count,
	}, nil
}

func init() {
	Register(Kind{Name: "bookmarks", Page: true, Parse: func(x *Extractor, input string) (any, error) {
		return x.BookmarkCategories(input)
	}})
}
