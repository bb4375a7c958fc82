package extractors

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/bugmaschine/rzk/internal/models"
	"github.com/bugmaschine/rzk/pkg/utils"
	"github.com/google/uuid"
)

// CommentsResponse parses the answer of /ajax/get_comments/ into a comment
// tree. A comment without id or author fails the whole tree.
func (x *Extractor) CommentsResponse(input string) ([]models.Comment, error) {
	fn := callerName(0)
	root, err := response(input, fn)
	if err != nil {
		return nil, err
	}
	html, err := stringParam(root, "comments", fn)
	if err != nil {
		return nil, err
	}

	doc, err := fragment(html)
	if err != nil {
		return nil, err
	}

	top := doc.Find("li.comments-tree-item").FilterFunction(func(i int, s *goquery.Selection) bool {
		return s.ParentsFiltered("li.comments-tree-item").Length() == 0
	})
	return x.comments(top)
}

func (x *Extractor) comments(items *goquery.Selection) ([]models.Comment, error) {
	var comments []models.Comment
	var failed error
	items.EachWithBreak(func(i int, s *goquery.Selection) bool {
		comment, err := x.comment(s)
		if err != nil {
			failed = err
			return false
		}
		comments = append(comments, comment)
		return true
	})
	if failed != nil {
		return nil, failed
	}
	return comments, nil
}

func (x *Extractor) comment(s *goquery.Selection) (models.Comment, error) {
	id, err := x.intAttr(s, "data-id")
	if err != nil {
		return models.Comment{}, err
	}

	body := s.ChildrenFiltered(".b-comment")
	author, err := x.text(body.Find(".info .name"))
	if err != nil {
		return models.Comment{}, err
	}

	text := body.Find(".text > div").First()
	comment := models.Comment{
		LocalID: uuid.New(),
		ID:      id,
		Author:  author,
		Date:    utils.CollapseSpace(body.Find(".info .date").First().Text()),
		Text:    utils.CollapseSpace(text.Text()),
		Spoiler: text.Find(".text_spoiler").Length() > 0,
	}
	if avatar, ok := body.Find(".ava img").Attr("src"); ok {
		comment.Avatar = avatar
	}
	if likes := body.Find(".b-comment__likes_count i"); likes.Length() > 0 {
		if comment.Likes, err = x.digits(likes); err != nil {
			return models.Comment{}, err
		}
	}

	replies := s.ChildrenFiltered("ol.comments-tree-list").ChildrenFiltered("li.comments-tree-item")
	if comment.Replies, err = x.comments(replies); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

func init() {
	Register(Kind{Name: "comments", Parse: func(x *Extractor, input string) (any, error) {
		return x.CommentsResponse(input)
	}})
}
