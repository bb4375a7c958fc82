package hls

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/bugmaschine/rzk/internal/models"
	"github.com/grafov/m3u8"
)

const (
	schemeMain      = "main"
	schemeFragments = "fragments"
	schemeSubtitles = "subtitles"
)

var (
	// ErrNotReady is returned for fragments and subtitles requested before the
	// playlist fetch completed. Callers retry.
	ErrNotReady        = errors.New("playlist is not fetched yet")
	ErrUnknownSubtitle = errors.New("unknown subtitle language")
	ErrSessionClosed   = errors.New("session is closed")
	ErrEmptyPlaylist   = errors.New("playlist is empty")
)

// Fetcher downloads a playlist.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

type ResourceKind int

const (
	ResourceMain ResourceKind = iota + 1
	ResourceFragments
	ResourceSubtitle
)

// Resource is one addressable playlist of a session.
type Resource struct {
	Kind ResourceKind
	// Language is set for subtitle resources.
	Language string
}

// ParseResource reads a virtual scheme URL like subtitles://en.
func ParseResource(raw string) (Resource, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Resource{}, fmt.Errorf("resource %q has no scheme", raw)
	}
	switch scheme {
	case schemeMain:
		return Resource{Kind: ResourceMain}, nil
	case schemeFragments:
		return Resource{Kind: ResourceFragments}, nil
	case schemeSubtitles:
		lang, _, _ := strings.Cut(rest, "/")
		if lang == "" {
			return Resource{}, fmt.Errorf("resource %q names no language", raw)
		}
		return Resource{Kind: ResourceSubtitle, Language: lang}, nil
	default:
		return Resource{}, fmt.Errorf("unsupported resource scheme %q", scheme)
	}
}

// Session serves the playlists of one playback item. The upstream playlist
// is fetched once, in the background, when the main resource is first
// requested.
type Session struct {
	manifestURL string
	tracks      []models.SubtitleTrack
	fetcher     Fetcher
	addr        Addresser

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}

	mu       sync.RWMutex
	playlist *Playlist
	err      error
	closed   bool
}

func NewSession(manifestURL string, tracks []models.SubtitleTrack, fetcher Fetcher) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		manifestURL: manifestURL,
		tracks:      tracks,
		fetcher:     fetcher,
		addr:        SchemeAddresser{},
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// SetAddresser changes how the master playlist references the other
// resources. Call it before the first Load.
func (s *Session) SetAddresser(addr Addresser) *Session {
	s.addr = addr
	return s
}

func (s *Session) Addresser() Addresser {
	return s.addr
}

// Load returns the playlist for r.
func (s *Session) Load(ctx context.Context, r Resource) (string, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return "", ErrSessionClosed
	}

	switch r.Kind {
	case ResourceMain:
		return s.loadMain(ctx)
	case ResourceFragments:
		playlist, err := s.ready()
		if err != nil {
			return "", err
		}
		return playlist.Body, nil
	case ResourceSubtitle:
		track, ok := s.track(r.Language)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownSubtitle, r.Language)
		}
		playlist, err := s.ready()
		if err != nil {
			return "", err
		}
		return SubtitlePlaylist(track.Link, playlist.Duration), nil
	default:
		return "", fmt.Errorf("unknown resource kind %d", r.Kind)
	}
}

// LoadURL is Load for a virtual scheme URL.
func (s *Session) LoadURL(ctx context.Context, raw string) (string, error) {
	r, err := ParseResource(raw)
	if err != nil {
		return "", err
	}
	return s.Load(ctx, r)
}

// Close cancels a running fetch. Later loads fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

func (s *Session) loadMain(ctx context.Context) (string, error) {
	s.once.Do(func() {
		go s.fetch()
	})

	select {
	case <-s.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	s.mu.RLock()
	err := s.err
	s.mu.RUnlock()
	if err != nil {
		return "", err
	}
	return MasterPlaylist(s.tracks, s.addr), nil
}

func (s *Session) ready() (*Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.playlist == nil {
		return nil, ErrNotReady
	}
	return s.playlist, nil
}

func (s *Session) track(language string) (models.SubtitleTrack, bool) {
	for _, t := range s.tracks {
		if t.Language == language {
			return t, true
		}
	}
	return models.SubtitleTrack{}, false
}

func (s *Session) fetch() {
	defer close(s.done)

	playlist, err := s.fetchPlaylist()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		slog.Warn("Failed to fetch playlist", "url", s.manifestURL, "error", err)
		s.err = err
		return
	}
	slog.Debug("Playlist ready", "segments", playlist.Segments, "duration", playlist.Duration)
	s.playlist = &playlist
}

func (s *Session) fetchPlaylist() (Playlist, error) {
	playlistURL := s.manifestURL
	body, err := s.get(playlistURL)
	if err != nil {
		return Playlist{}, err
	}

	// Some sources hand out a master playlist; play its best variant.
	if variant, ok := bestVariant(body); ok {
		variantURL, err := resolve(playlistURL, variant)
		if err != nil {
			return Playlist{}, err
		}
		slog.Debug("Following master playlist variant", "url", variantURL)
		playlistURL = variantURL
		if body, err = s.get(playlistURL); err != nil {
			return Playlist{}, err
		}
	}

	return RewriteMediaPlaylist(string(body), playlistURL)
}

func (s *Session) get(target string) ([]byte, error) {
	body, err := s.fetcher.Fetch(s.ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPlaylist, target)
	}
	return body, nil
}

// bestVariant returns the URI of the highest bandwidth variant if body is a
// master playlist.
func bestVariant(body []byte) (string, bool) {
	p, listType, err := m3u8.DecodeFrom(bytes.NewReader(body), false)
	if err != nil || listType != m3u8.MASTER {
		return "", false
	}
	master := p.(*m3u8.MasterPlaylist)
	if len(master.Variants) == 0 {
		return "", false
	}
	variants := append([]*m3u8.Variant(nil), master.Variants...)
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Bandwidth > variants[j].Bandwidth
	})
	return variants[0].URI, true
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse playlist url: %w", err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("failed to parse variant url: %w", err)
	}
	return b.ResolveReference(r).String(), nil
}
