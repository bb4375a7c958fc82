package rezka

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/bugmaschine/rzk/internal/models"
)

const (
	searchPath    = "/search/"
	favoritesPath = "/favorites/"
	commentsPath  = "/ajax/get_comments/"
)

// Movies loads a listing page such as a category, collection or bookmark folder.
func (c *Client) Movies(ctx context.Context, path string) ([]models.MovieSimple, error) {
	html, err := c.Page(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.extractor.Movies(html)
}

func (c *Client) Search(ctx context.Context, query string) ([]models.MovieSimple, error) {
	q := url.Values{}
	q.Set("do", "search")
	q.Set("subaction", "search")
	q.Set("q", query)
	return c.Movies(ctx, searchPath+"?"+q.Encode())
}

// Categories loads the site navigation from the start page.
func (c *Client) Categories(ctx context.Context) ([]models.CategoryGroup, error) {
	html, err := c.Page(ctx, "/")
	if err != nil {
		return nil, err
	}
	return c.extractor.Categories(html)
}

// Years loads the year filter of a category listing.
func (c *Client) Years(ctx context.Context, category models.CategoryType) ([]int, error) {
	html, err := c.Page(ctx, "/"+category.Slug()+"/")
	if err != nil {
		return nil, err
	}
	return c.extractor.Years(html)
}

// Bookmarks loads the bookmark folders of the logged in account.
func (c *Client) Bookmarks(ctx context.Context) ([]models.BookmarkCategory, error) {
	html, err := c.Page(ctx, favoritesPath)
	if err != nil {
		return nil, err
	}
	return c.extractor.BookmarkCategories(html)
}

// Movie loads a movie page. link may be absolute or site relative.
func (c *Client) Movie(ctx context.Context, link string) (*models.MovieDetailed, error) {
	html, err := c.Page(ctx, link)
	if err != nil {
		return nil, err
	}
	movie, err := c.extractor.Movie(html)
	if err != nil {
		return nil, err
	}
	if movie.URL == "" {
		movie.URL = c.URL(link)
	}
	return movie, nil
}

// Episodes loads the seasons a translator offers for a series.
func (c *Client) Episodes(ctx context.Context, movieID, translatorID int) ([]models.Season, error) {
	form := url.Values{}
	form.Set("id", strconv.Itoa(movieID))
	form.Set("translator_id", strconv.Itoa(translatorID))
	form.Set("action", "get_episodes")

	body, err := c.ajax(ctx, cdnSeriesPath, form)
	if err != nil {
		return nil, err
	}
	return c.extractor.EpisodesResponse(body)
}

// Comments loads one page of the comment tree, starting at 1.
func (c *Client) Comments(ctx context.Context, movieID, page int) ([]models.Comment, error) {
	q := url.Values{}
	q.Set("news_id", strconv.Itoa(movieID))
	q.Set("cstart", strconv.Itoa(max(1, page)))
	q.Set("type", "0")
	q.Set("comment_id", "0")
	q.Set("skin", "hdrezka")

	body, err := c.ajaxGet(ctx, commentsPath, q)
	if err != nil {
		return nil, err
	}
	return c.extractor.CommentsResponse(body)
}

// Selection fills the zero fields of sel from the movie's defaults.
func Selection(movie *models.MovieDetailed, sel models.StreamSelection) models.StreamSelection {
	if sel.TranslatorID == 0 {
		sel.TranslatorID = movie.Default.TranslatorID
	}
	if movie.Series {
		if sel.Season == 0 {
			sel.Season = max(1, movie.Default.Season)
		}
		if sel.Episode == 0 {
			sel.Episode = max(1, movie.Default.Episode)
		}
	}
	return sel
}

// Stream resolves the stream links of a movie or one episode of a series.
func (c *Client) Stream(ctx context.Context, movie *models.MovieDetailed, sel models.StreamSelection) (*models.Stream, error) {
	if movie.ComingSoon {
		return nil, fmt.Errorf("%q has no player yet", movie.Title)
	}
	sel = Selection(movie, sel)
	if sel.TranslatorID == 0 {
		return nil, fmt.Errorf("no translator known for %q", movie.Title)
	}

	form := url.Values{}
	form.Set("id", strconv.Itoa(movie.ID))
	form.Set("translator_id", strconv.Itoa(sel.TranslatorID))
	if movie.Series {
		form.Set("season", strconv.Itoa(sel.Season))
		form.Set("episode", strconv.Itoa(sel.Episode))
		form.Set("action", "get_stream")
	} else {
		acting := voiceActing(movie, sel.TranslatorID)
		form.Set("is_camrip", flag(acting.Camrip))
		form.Set("is_ads", flag(acting.Ads))
		form.Set("is_director", flag(acting.Director))
		form.Set("action", "get_movie")
	}

	slog.Debug("Resolving stream", "id", movie.ID, "translator", sel.TranslatorID, "season", sel.Season, "episode", sel.Episode)
	body, err := c.ajax(ctx, cdnSeriesPath, form)
	if err != nil {
		return nil, err
	}
	return c.extractor.StreamResponse(body)
}

func voiceActing(movie *models.MovieDetailed, id int) models.VoiceActing {
	for _, a := range movie.VoiceActings {
		if a.ID == id {
			return a
		}
	}
	return models.VoiceActing{ID: id}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
