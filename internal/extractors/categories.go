package extractors

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/bugmaschine/rzk/internal/models"
	"github.com/google/uuid"
)

// Categories parses the top navigation. Entries that do not lead to a
// category, like "new" or "announcements", are skipped; an entry without a
// link fails the page. Genres without a link are dropped.
func (x *Extractor) Categories(html string) ([]models.CategoryGroup, error) {
	page, err := x.Check(html)
	if err != nil {
		return nil, err
	}

	var groups []models.CategoryGroup
	var failed error
	page.Doc.Find("#topnav-menu > li").EachWithBreak(func(i int, s *goquery.Selection) bool {
		link := s.Find("a.b-topnav__item-link")
		href, err := x.attr(link, "href")
		if err != nil {
			failed = err
			return false
		}

		parsed, err := models.ParseLink(href)
		if err != nil || parsed.Kind != models.LinkCategory {
			return true
		}

		title, err := x.text(link)
		if err != nil {
			failed = err
			return false
		}

		group := models.CategoryGroup{
			LocalID: uuid.New(),
			Type:    parsed.Category,
			Title:   title,
			URL:     x.absolute(href),
		}
		s.Find(".b-topnav__sub_inner a").Each(func(j int, a *goquery.Selection) {
			genreHref, ok := a.Attr("href")
			name := optionalText(a)
			if !ok || genreHref == "" || name == nil {
				return
			}
			group.Genres = append(group.Genres, models.Genre{
				LocalID: uuid.New(),
				Name:    *name,
				URL:     x.absolute(genreHref),
			})
		})
		groups = append(groups, group)
		return true
	})
	if failed != nil {
		return nil, failed
	}
	return groups, nil
}

func init() {
	Register(Kind{Name: "categories", Page: true, Parse: func(x *Extractor, input string) (any, error) {
		return x.Categories(input)
	}})
}
