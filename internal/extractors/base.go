// Package extractors turns portal markup into models.
//
// Page parsers take a full HTML page and run the page check first. Fragment
// parsers take the JSON the site's ajax endpoints answer with, where the
// interesting HTML is embedded in string fields.
package extractors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bugmaschine/rzk/pkg/utils"
)

const (
	loginGateSelector = "form#check-form"
	wrapperSelector   = "div.b-wrapper"
	premiumSelector   = "#user-premium-status"
)

// Extractor parses pages served by one mirror.
type Extractor struct {
	// Origin is the mirror the markup came from, e.g. https://rezka.ag.
	Origin string
	// Reporter receives extraction failures. Nil logs them.
	Reporter Reporter
	// OnPremium, if set, receives the premium flag of every checked page.
	OnPremium func(premium int)
}

func New(origin string) *Extractor {
	return &Extractor{Origin: strings.TrimSuffix(origin, "/")}
}

// Page is a checked document.
type Page struct {
	Doc *goquery.Document
	// Premium is the numeric premium flag the page reports for the session.
	// Callers route it into their runtime config.
	Premium int
}

// Check parses html and verifies it is neither the login gate nor a banned mirror page.
func (x *Extractor) Check(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	if doc.Find(loginGateSelector).Length() > 0 {
		return nil, &LoginRequiredError{Origin: x.Origin}
	}
	if doc.Find(wrapperSelector).Length() == 0 {
		return nil, &MirrorBannedError{Origin: x.Origin}
	}

	premium := 0
	if v, ok := doc.Find(premiumSelector).Attr("data-premium"); ok {
		premium, _ = strconv.Atoi(strings.TrimSpace(v))
	}

	if x.OnPremium != nil {
		x.OnPremium(premium)
	}
	return &Page{Doc: doc, Premium: premium}, nil
}

func fragment(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	return doc, nil
}

// text returns the collapsed text of sel, failing when it is missing or empty.
func (x *Extractor) text(sel *goquery.Selection) (string, error) {
	t := utils.CollapseSpace(sel.First().Text())
	if sel.Length() == 0 || t == "" {
		return "", x.null(1)
	}
	return t, nil
}

func optionalText(sel *goquery.Selection) *string {
	if sel.Length() == 0 {
		return nil
	}
	t := utils.CollapseSpace(sel.First().Text())
	if t == "" {
		return nil
	}
	return &t
}

// attr returns a non-empty attribute value of sel.
func (x *Extractor) attr(sel *goquery.Selection, name string) (string, error) {
	v, ok := sel.First().Attr(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", x.null(1)
	}
	return v, nil
}

func (x *Extractor) intAttr(sel *goquery.Selection, name string) (int, error) {
	v, ok := sel.First().Attr(name)
	if !ok {
		return 0, x.null(1)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, x.null(1)
	}
	return n, nil
}

// digits parses the digits of the text of sel.
func (x *Extractor) digits(sel *goquery.Selection) (int, error) {
	n, err := strconv.Atoi(utils.Digits(sel.First().Text()))
	if sel.Length() == 0 || err != nil {
		return 0, x.null(1)
	}
	return n, nil
}

// absolute resolves a site relative link against the origin.
func (x *Extractor) absolute(link string) string {
	if strings.HasPrefix(link, "/") && !strings.HasPrefix(link, "//") {
		return x.Origin + link
	}
	return link
}

func boolAttr(sel *goquery.Selection, name string) bool {
	v, _ := sel.Attr(name)
	return v == "1" || v == "true"
}

// Kind is a named parser the CLI can run on raw input.
type Kind struct {
	Name string
	// Page kinds expect a full HTML page, the others an ajax JSON answer.
	Page  bool
	Parse func(x *Extractor, input string) (any, error)
}

var registry []Kind

func Register(k Kind) {
	registry = append(registry, k)
}

func GetKinds() []Kind {
	return registry
}

func GetKindByName(name string) *Kind {
	for i := range registry {
		if strings.EqualFold(registry[i].Name, name) {
			return &registry[i]
		}
	}
	return nil
}

func KindNames() []string {
	kinds := GetKinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.Name)
	}
	return names
}
