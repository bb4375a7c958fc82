package models

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// LinkKind enumerates everything a site link can navigate to.
type LinkKind int

const (
	LinkMovie LinkKind = iota + 1
	LinkCategory
	LinkPerson
	LinkCollection
)

func (k LinkKind) String() string {
	switch k {
	case LinkMovie:
		return "movie"
	case LinkCategory:
		return "category"
	case LinkPerson:
		return "person"
	case LinkCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Link is a parsed site URL. Which fields are set depends on Kind:
// movies carry ID, Category and Genre; categories carry Category and
// optionally Genre; persons and collections carry ID and Slug.
type Link struct {
	Kind     LinkKind
	URL      string
	ID       int
	Slug     string
	Category CategoryType
	Genre    string
}

var (
	movieRegex      = regexp.MustCompile(`^/(films|series|cartoons|animation)/([^/]+)/(\d+)-([^/]*)\.html$`)
	categoryRegex   = regexp.MustCompile(`^/(films|series|cartoons|animation)(?:/([^/]+))?/?$`)
	personRegex     = regexp.MustCompile(`^/person/(\d+)-([^/]*)/?$`)
	collectionRegex = regexp.MustCompile(`^/collections/(\d+)-([^/]*)/?$`)
)

// ParseLink classifies an absolute or site relative URL.
func ParseLink(rawURL string) (Link, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Link{}, fmt.Errorf("invalid link %q: %w", rawURL, err)
	}
	path := u.Path

	if m := movieRegex.FindStringSubmatch(path); m != nil {
		id, _ := strconv.Atoi(m[3])
		return Link{Kind: LinkMovie, URL: rawURL, ID: id, Slug: m[4], Category: ParseCategoryType(m[1]), Genre: m[2]}, nil
	}
	if m := categoryRegex.FindStringSubmatch(path); m != nil {
		return Link{Kind: LinkCategory, URL: rawURL, Category: ParseCategoryType(m[1]), Genre: m[2]}, nil
	}
	if m := personRegex.FindStringSubmatch(path); m != nil {
		id, _ := strconv.Atoi(m[1])
		return Link{Kind: LinkPerson, URL: rawURL, ID: id, Slug: m[2]}, nil
	}
	if m := collectionRegex.FindStringSubmatch(path); m != nil {
		id, _ := strconv.Atoi(m[1])
		return Link{Kind: LinkCollection, URL: rawURL, ID: id, Slug: m[2]}, nil
	}

	return Link{}, fmt.Errorf("unsupported link %q", rawURL)
}

// IsManifestLink reports whether a stream link points at an HLS manifest.
func IsManifestLink(link string) bool {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	return strings.HasSuffix(link, ".m3u8")
}
