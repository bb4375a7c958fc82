package hls

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

const playlistContentType = "application/vnd.apple.mpegurl"

// Handler serves a Session over HTTP for external players:
//
//	/main.m3u8
//	/fragments.m3u8
//	/subtitles/{language}.m3u8
type Handler struct {
	session *Session
	mux     *http.ServeMux
}

func NewHandler(session *Session) *Handler {
	h := &Handler{session: session, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /main.m3u8", h.serve(func(*http.Request) Resource {
		return Resource{Kind: ResourceMain}
	}))
	h.mux.HandleFunc("GET /fragments.m3u8", h.serve(func(*http.Request) Resource {
		return Resource{Kind: ResourceFragments}
	}))
	h.mux.HandleFunc("GET /subtitles/{file}", h.serve(func(r *http.Request) Resource {
		return Resource{Kind: ResourceSubtitle, Language: strings.TrimSuffix(r.PathValue("file"), ".m3u8")}
	}))
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) serve(resource func(*http.Request) Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := resource(r)
		body, err := h.session.Load(r.Context(), res)
		if err != nil {
			status := statusFor(err)
			slog.Debug("Playlist request failed", "path", r.URL.Path, "status", status, "error", err)
			if status == http.StatusServiceUnavailable {
				w.Header().Set("Retry-After", "1")
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", playlistContentType)
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write([]byte(body)); err != nil {
			slog.Debug("Failed to write playlist", "path", r.URL.Path, "error", err)
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUnknownSubtitle):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionClosed):
		return http.StatusGone
	default:
		return http.StatusBadGateway
	}
}
