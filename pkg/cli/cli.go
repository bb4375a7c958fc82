package cli

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bugmaschine/rzk/internal/extractors"
	"github.com/bugmaschine/rzk/internal/models"
	"github.com/bugmaschine/rzk/pkg/config"
	"github.com/spf13/cobra"
)

const (
	CommandDecrypt = "decrypt"
	CommandParse   = "parse"
	CommandStream  = "stream"
	CommandServe   = "serve"
)

type Args struct {
	Command string
	Inputs  []string

	ConfigFile string
	LogFile    string
	Debug      bool
	Origin     string
	Browser    bool
	Rate       string

	// parse
	Kind string

	// stream
	Translator int
	Season     int
	Episodes   string
	Play       bool

	// serve
	Subtitles []string
	Listen    string
	Player    string
}

// MaxEpisodes bounds the number of episodes one --episodes value may name.
const MaxEpisodes = 5000

// Range is an inclusive episode range.
type Range struct {
	Begin uint32
	End   uint32
}

// GetEpisodes returns the requested episodes, nil meaning the default one.
func (a *Args) GetEpisodes() ([]Range, error) {
	if a.Episodes == "" {
		return nil, nil
	}
	return parseRanges(a.Episodes)
}

// GetSubtitles parses the --sub values, each lang=name=link.
func (a *Args) GetSubtitles() ([]models.SubtitleTrack, error) {
	var tracks []models.SubtitleTrack
	for _, s := range a.Subtitles {
		parts := strings.SplitN(s, "=", 3)
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid subtitle %q, expected lang=name=link", s)
		}
		tracks = append(tracks, models.SubtitleTrack{Language: parts[0], Name: parts[1], Link: parts[2]})
	}
	return tracks, nil
}

// Apply overrides the config values the user set on the command line.
func (a *Args) Apply(cfg *config.Config) error {
	if a.Origin != "" {
		cfg.Origin = a.Origin
	}
	if a.Browser {
		cfg.Browser = true
	}
	if a.Player != "" {
		cfg.Player = a.Player
	}
	limit, err := ParseRateLimit(a.Rate)
	if err != nil {
		return err
	}
	if limit >= 0 {
		cfg.RateLimit = limit
	}
	return cfg.Validate()
}

func parseRanges(input string) ([]Range, error) {
	noSpace := strings.ReplaceAll(input, " ", "")
	parts := strings.Split(noSpace, ",")
	var ranges []Range

	for _, part := range parts {
		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid range format: %s", part)
			}
			begin, err := strconv.ParseUint(rangeParts[0], 10, 32)
			if err != nil {
				return nil, err
			}
			end, err := strconv.ParseUint(rangeParts[1], 10, 32)
			if err != nil {
				return nil, err
			}
			if begin > end {
				return nil, fmt.Errorf("range start cannot be bigger than range end: %s", part)
			}
			ranges = append(ranges, Range{Begin: uint32(begin), End: uint32(end)})
		} else {
			num, err := strconv.ParseUint(part, 10, 32)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, Range{Begin: uint32(num), End: uint32(num)})
		}
	}

	merged := mergeRanges(ranges)
	total := uint64(0)
	for _, r := range merged {
		total += uint64(r.End-r.Begin) + 1
	}
	if total > MaxEpisodes {
		return nil, fmt.Errorf("%s names %d episodes, at most %d are allowed", input, total, MaxEpisodes)
	}
	return merged, nil
}

// Contains reports whether episode lies in one of ranges.
func Contains(ranges []Range, episode int) bool {
	for _, r := range ranges {
		if episode >= int(r.Begin) && episode <= int(r.End) {
			return true
		}
	}
	return false
}

func mergeRanges(ranges []Range) []Range {
	if len(ranges) <= 1 {
		return ranges
	}

	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Begin < ranges[j].Begin
	})

	merged := []Range{ranges[0]}
	for i := 1; i < len(ranges); i++ {
		last := &merged[len(merged)-1]
		current := ranges[i]

		if current.Begin <= last.End+1 {
			if current.End > last.End {
				last.End = current.End
			}
		} else {
			merged = append(merged, current)
		}
	}
	return merged
}

var rateRegex = regexp.MustCompile(`^([\d.]+)\s*(/s|/m|/min)?$`)

// ParseRateLimit reads a request rate like "2", "2/s" or "30/m" into
// requests per second. "inf" and "0" disable the limit. An empty string
// returns -1 so the config value is kept.
func ParseRateLimit(input string) (float64, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return -1, nil
	}
	if input == "inf" {
		return 0, nil
	}

	matches := rateRegex.FindStringSubmatch(input)
	if matches == nil {
		return 0, fmt.Errorf("invalid rate limit format: %s", input)
	}

	val, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	switch matches[2] {
	case "/m", "/min":
		return val / 60, nil
	default:
		return val, nil
	}
}

func NewRootCommand(args *Args) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rzk",
		Short:         "Scrape, decrypt and play streams of rezka mirrors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&args.ConfigFile, "config", "c", "", "Path to the config file (default: config.yaml in the data directory)")
	f.BoolVarP(&args.Debug, "debug", "d", false, "Enable debug mode")
	f.StringVarP(&args.LogFile, "log", "l", "", "Path to log file. If not set, logs will only be printed to console. WARNING: This will append to the log file.")
	f.StringVar(&args.Origin, "origin", "", "Mirror to use, overrides the config file")
	f.BoolVar(&args.Browser, "browser", false, "Fetch pages through headless Chrome")
	f.StringVarP(&args.Rate, "rate", "r", "", "Maximum request rate, e.g. 2, 2/s, 30/m or inf")

	cmd.AddCommand(
		newDecryptCommand(args),
		newParseCommand(args),
		newStreamCommand(args),
		newServeCommand(args),
	)
	return cmd
}

// capture stores the command name and its positional arguments.
func capture(args *Args, name string) func(cmd *cobra.Command, cmdArgs []string) {
	return func(cmd *cobra.Command, cmdArgs []string) {
		args.Command = name
		args.Inputs = cmdArgs
	}
}

func newDecryptCommand(args *Args) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <payload>...",
		Short: "Decode obfuscated stream link payloads",
		Args:  cobra.MinimumNArgs(1),
		Run:   capture(args, CommandDecrypt),
	}
}

func newParseCommand(args *Args) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse --kind <kind> <file|url>...",
		Short: "Run an extractor on saved files or fetched pages and print JSON",
		Args: func(cmd *cobra.Command, cmdArgs []string) error {
			if len(cmdArgs) == 0 {
				return fmt.Errorf("you must provide at least one file or URL")
			}
			if extractors.GetKindByName(args.Kind) == nil {
				return fmt.Errorf("unknown kind %q, expected one of %s", args.Kind, strings.Join(extractors.KindNames(), ", "))
			}
			return nil
		},
		Run: capture(args, CommandParse),
	}
	cmd.Flags().StringVarP(&args.Kind, "kind", "k", "movie", "Extractor to run ("+strings.Join(extractors.KindNames(), ", ")+")")
	return cmd
}

func newStreamCommand(args *Args) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream <movie-url>",
		Short: "Resolve the stream links of a movie or of series episodes",
		Args:  cobra.ExactArgs(1),
		Run:   capture(args, CommandStream),
	}
	f := cmd.Flags()
	f.IntVarP(&args.Translator, "translator", "t", 0, "Translator id (default: the one the page preselects)")
	f.IntVarP(&args.Season, "season", "s", 0, "Season (default: the one the page preselects)")
	f.StringVarP(&args.Episodes, "episodes", "e", "", "Episodes to resolve (e.g. 1-3,5)")
	f.BoolVar(&args.Play, "play", false, "Play the first resolved stream")
	f.StringVar(&args.Listen, "listen", "127.0.0.1:0", "Address of the local playlist server when playing")
	f.StringVar(&args.Player, "player", "", "Player command (default: from config)")
	return cmd
}

func newServeCommand(args *Args) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <manifest-url>",
		Short: "Serve a rewritten playlist with subtitle tracks to a local player",
		Args:  cobra.ExactArgs(1),
		Run:   capture(args, CommandServe),
	}
	f := cmd.Flags()
	f.StringArrayVar(&args.Subtitles, "sub", nil, "Subtitle track as lang=name=link, repeatable")
	f.StringVar(&args.Listen, "listen", "127.0.0.1:0", "Address to listen on")
	f.StringVar(&args.Player, "player", "", "Start this player on the served playlist")
	return cmd
}
