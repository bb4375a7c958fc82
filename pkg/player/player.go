package player

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Media struct {
	URL     string
	Title   string
	Referer string
}

// Args builds the command line for the player binary. mpv and iina get
// title and referrer options, other players only the URL.
func Args(player string, m Media) []string {
	switch strings.TrimSuffix(filepath.Base(player), ".exe") {
	case "mpv":
		args := []string{m.URL}
		if m.Referer != "" {
			args = append(args, fmt.Sprintf("--referrer=%s", m.Referer))
		}
		if m.Title != "" {
			args = append(args, fmt.Sprintf("--force-media-title=%s", m.Title))
		}
		return args
	case "iina":
		args := []string{"--no-stdin", "--keep-running"}
		if m.Referer != "" {
			args = append(args, fmt.Sprintf("--mpv-referrer=%s", m.Referer))
		}
		args = append(args, m.URL)
		if m.Title != "" {
			args = append(args, fmt.Sprintf("--mpv-force-media-title=%s", m.Title))
		}
		return args
	default:
		return []string{m.URL}
	}
}

// Play runs player on m and waits for it to exit.
func Play(ctx context.Context, player string, m Media) error {
	cmd := exec.CommandContext(ctx, player, Args(player, m)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Info("Starting player", "player", player, "title", m.Title)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("player %s failed: %w", player, err)
	}
	return nil
}
