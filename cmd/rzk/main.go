package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/bugmaschine/rzk/internal/decrypt"
	"github.com/bugmaschine/rzk/internal/extractors"
	"github.com/bugmaschine/rzk/internal/hls"
	"github.com/bugmaschine/rzk/internal/models"
	"github.com/bugmaschine/rzk/internal/rezka"
	"github.com/bugmaschine/rzk/pkg/batch"
	"github.com/bugmaschine/rzk/pkg/chrome"
	"github.com/bugmaschine/rzk/pkg/cli"
	"github.com/bugmaschine/rzk/pkg/config"
	"github.com/bugmaschine/rzk/pkg/dirs"
	"github.com/bugmaschine/rzk/pkg/logger"
	"github.com/bugmaschine/rzk/pkg/player"
	"golang.org/x/term"
)

const maxConcurrent = 4

func main() {
	args := &cli.Args{}
	rootCmd := cli.NewRootCommand(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if args.Command == "" {
		// help or version output only
		return
	}

	// Set up logger
	logger.InitDefaultLogger(args.Debug, args.LogFile)

	// Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if args.Command == cli.CommandDecrypt {
		handleDecrypt(args)
		return
	}

	cfg, err := loadConfig(args)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Debug("Using mirror", "origin", cfg.Origin, "rate", cfg.RateLimit, "browser", cfg.Browser)

	client := rezka.NewClient(cfg, config.Current)
	if cfg.Browser {
		browser := chrome.New(chrome.Options{
			UserAgent: cfg.UserAgent,
			Cookies:   cfg.Cookies,
			Headless:  true,
			Debug:     args.Debug,
		})
		defer browser.Close()
		client.SetBrowser(browser)
	}

	switch args.Command {
	case cli.CommandParse:
		err = handleParse(ctx, args, client)
	case cli.CommandStream:
		err = handleStream(ctx, args, cfg, client)
	case cli.CommandServe:
		err = handleServe(ctx, args, client)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Command failed", "command", args.Command, "error", err)
		os.Exit(1)
	}
	slog.Debug("Done", "premium", config.Current.Premium())
}

// loadConfig reads the config file and applies the flags on top. The first
// run writes the defaults so the user has a file to edit.
func loadConfig(args *cli.Args) (config.Config, error) {
	path, err := dirs.ConfigPath(args.ConfigFile, config.FileName)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := cfg.Save(path); err != nil {
			slog.Warn("Failed to write default config", "path", path, "error", err)
		} else {
			slog.Info("Wrote default config", "path", path)
		}
	}
	if err := args.Apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// progressOutput is stderr when it is a terminal, nil otherwise.
func progressOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return os.Stderr
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func handleDecrypt(args *cli.Args) {
	for _, payload := range args.Inputs {
		d := decrypt.NewDecoder()
		plain := d.Decode(payload)
		slog.Debug("Decoded payload", "length", len(payload), "resolutions", d.Resolutions())
		fmt.Println(plain)
	}
}

type parseResult struct {
	Input string `json:"input"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func handleParse(ctx context.Context, args *cli.Args, client *rezka.Client) error {
	kind := extractors.GetKindByName(args.Kind)
	if kind == nil {
		return fmt.Errorf("unknown kind %q", args.Kind)
	}

	runner := batch.NewRunner(maxConcurrent, progressOutput()).SetMessage("Parsing")
	results := batch.Run(ctx, runner, args.Inputs, func(ctx context.Context, input string) (any, error) {
		raw, err := readInput(ctx, client, input, kind.Page)
		if err != nil {
			return nil, err
		}
		return kind.Parse(client.Extractor(), raw)
	})

	if len(results) == 1 {
		if results[0].Err != nil {
			return results[0].Err
		}
		return printJSON(results[0].Value)
	}

	out := make([]parseResult, len(results))
	for i, res := range results {
		out[i] = parseResult{Input: res.Input, Value: res.Value}
		if res.Err != nil {
			slog.Warn("Failed to parse input", "input", res.Input, "error", res.Err)
			out[i].Error = res.Err.Error()
		}
	}
	if err := printJSON(out); err != nil {
		return err
	}
	return batch.FirstError(results)
}

// readInput loads a saved file, or fetches input when it is a URL.
func readInput(ctx context.Context, client *rezka.Client, input string, page bool) (string, error) {
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		data, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(data), nil
	}
	if page {
		return client.Page(ctx, input)
	}
	data, err := client.Fetch(ctx, input)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type streamResult struct {
	Selection models.StreamSelection `json:"selection"`
	Stream    *models.Stream         `json:"stream,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

func handleStream(ctx context.Context, args *cli.Args, cfg config.Config, client *rezka.Client) error {
	slog.Info("Fetching movie info...", "url", args.Inputs[0])
	movie, err := client.Movie(ctx, args.Inputs[0])
	if err != nil {
		return err
	}
	slog.Info("Movie", "title", movie.Title, "series", movie.Series)

	ranges, err := args.GetEpisodes()
	if err != nil {
		return fmt.Errorf("invalid episodes: %w", err)
	}
	if len(ranges) > 0 && !movie.Series {
		return fmt.Errorf("%q is not a series, drop --episodes", movie.Title)
	}

	// An empty input keeps the episode the page preselects.
	inputs := []string{""}
	if len(ranges) > 0 {
		inputs = episodeInputs(movie, rezka.Selection(movie, models.StreamSelection{TranslatorID: args.Translator, Season: args.Season}).Season, ranges)
		if len(inputs) == 0 {
			return fmt.Errorf("no episodes of %q match %s", movie.Title, args.Episodes)
		}
	}

	selection := func(input string) models.StreamSelection {
		episode, _ := strconv.Atoi(input)
		return rezka.Selection(movie, models.StreamSelection{
			TranslatorID: args.Translator,
			Season:       args.Season,
			Episode:      episode,
		})
	}

	runner := batch.NewRunner(maxConcurrent, progressOutput()).SetMessage("Resolving")
	results := batch.Run(ctx, runner, inputs, func(ctx context.Context, input string) (*models.Stream, error) {
		return client.Stream(ctx, movie, selection(input))
	})

	out := make([]streamResult, len(results))
	for i, res := range results {
		out[i] = streamResult{Selection: selection(res.Input), Stream: res.Value}
		if res.Err != nil {
			slog.Warn("Failed to resolve stream", "selection", out[i].Selection, "error", res.Err)
			out[i].Error = res.Err.Error()
		}
	}
	if err := printJSON(out); err != nil {
		return err
	}

	if !args.Play {
		return batch.FirstError(results)
	}
	for _, res := range out {
		if res.Stream == nil {
			continue
		}
		return playStream(ctx, args, cfg, client, movie.Title, res.Stream)
	}
	return fmt.Errorf("no stream to play: %w", batch.FirstError(results))
}

// episodeInputs lists the requested episodes. When the page lists the season
// only its episodes are taken.
func episodeInputs(movie *models.MovieDetailed, season int, ranges []cli.Range) []string {
	var inputs []string
	for _, s := range movie.Seasons {
		if s.ID != season {
			continue
		}
		for _, ep := range s.Episodes {
			if cli.Contains(ranges, ep.ID) {
				inputs = append(inputs, strconv.Itoa(ep.ID))
			}
		}
		return inputs
	}

	for _, r := range ranges {
		for ep := r.Begin; ep <= r.End; ep++ {
			inputs = append(inputs, strconv.FormatUint(uint64(ep), 10))
		}
	}
	return inputs
}

func playStream(ctx context.Context, args *cli.Args, cfg config.Config, client *rezka.Client, title string, stream *models.Stream) error {
	best, ok := stream.Best()
	if !ok {
		return fmt.Errorf("stream has no qualities")
	}
	slog.Info("Playing", "title", title, "quality", best.Label)

	manifest, ok := best.HLS()
	if !ok {
		if len(best.Links) == 0 {
			return fmt.Errorf("quality %s has no links", best.Label)
		}
		return player.Play(ctx, cfg.Player, player.Media{URL: best.Links[0], Title: title, Referer: client.Origin() + "/"})
	}
	return serveSession(ctx, client, manifest, stream.Subtitles, args.Listen, cfg.Player, title)
}

func handleServe(ctx context.Context, args *cli.Args, client *rezka.Client) error {
	tracks, err := args.GetSubtitles()
	if err != nil {
		return err
	}
	return serveSession(ctx, client, args.Inputs[0], tracks, args.Listen, args.Player, "")
}

// serveSession serves the playlists of one manifest on listen until ctx ends
// or, when playerCmd is set, the player exits.
func serveSession(ctx context.Context, client *rezka.Client, manifestURL string, tracks []models.SubtitleTrack, listen, playerCmd, title string) error {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	session := hls.NewSession(manifestURL, tracks, client).
		SetAddresser(hls.HTTPAddresser{Base: "http://" + ln.Addr().String()})
	defer session.Close()

	srv := &http.Server{
		Handler:           hls.NewHandler(session),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Playlist server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Fetching playlist...", "url", manifestURL)
	if _, err := session.Load(ctx, hls.Resource{Kind: hls.ResourceMain}); err != nil {
		return err
	}

	mainURL := session.Addresser().Main()
	slog.Info("Serving playlist", "url", mainURL, "subtitles", len(tracks))

	if playerCmd == "" {
		<-ctx.Done()
		return ctx.Err()
	}
	return player.Play(ctx, playerCmd, player.Media{URL: mainURL, Title: title, Referer: client.Origin() + "/"})
}
