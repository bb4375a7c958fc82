package chrome

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Hides navigator.webdriver from the mirror's bot checks.
const antiAutomationScript = `
	Object.defineProperty(window, "navigator", {
		value: new Proxy(navigator, {
			has: (target, key) => (key === "webdriver" ? false : key in target),
			get: (target, key) =>
			key === "webdriver"
				? false
				: typeof target[key] === "function"
				? target[key].bind(target)
				: target[key],
		}),
	});
`

type Options struct {
	UserAgent string
	// Cookies are set for the origin of every fetched page.
	Cookies  map[string]string
	Headless bool
	Debug    bool
}

// Browser fetches fully rendered pages through a single Chrome instance.
// Pages are loaded one at a time.
type Browser struct {
	opts Options

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func New(opts Options) *Browser {
	return &Browser{opts: opts}
}

// findChrome returns the first chromium like binary on PATH. An empty result
// lets chromedp use its own lookup.
func findChrome() string {
	for _, bin := range []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if path, err := exec.LookPath(bin); err == nil {
			slog.Debug("Using system chromium", "path", path)
			return path
		}
	}
	return ""
}

// start launches the browser on first use.
func (b *Browser) start() (context.Context, error) {
	if b.ctx != nil {
		return b.ctx, nil
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("exclude-switches", "enable-automation,enable-logging"),
		chromedp.WindowSize(1920, 1080),
	}
	if path := findChrome(); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	if b.opts.Headless && !b.opts.Debug {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if b.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	var contextOpts []chromedp.ContextOption
	if b.opts.Debug {
		contextOpts = append(contextOpts,
			chromedp.WithLogf(func(s string, i ...interface{}) { slog.Debug(fmt.Sprintf(s, i...)) }),
		)
	}
	taskCtx, taskCancel := chromedp.NewContext(allocCtx, contextOpts...)

	cancel := func() {
		taskCancel()
		allocCancel()
	}

	err := chromedp.Run(taskCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(antiAutomationScript).Do(ctx)
			return err
		}),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("browser failed to start or patches failed: %w", err)
	}

	b.ctx, b.cancel = taskCtx, cancel
	return taskCtx, nil
}

// Page navigates to pageURL and returns the rendered document.
func (b *Browser) Page(ctx context.Context, pageURL string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	browserCtx, err := b.start()
	if err != nil {
		return "", err
	}

	// Tie the navigation to ctx without tearing down the shared browser.
	runCtx, cancel := context.WithCancel(browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err = chromedp.Run(runCtx,
		setCookies(pageURL, b.opts.Cookies),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to load %s in browser: %w", pageURL, err)
	}
	slog.Debug("Loaded page in browser", "url", pageURL, "bytes", len(html))
	return html, nil
}

func setCookies(pageURL string, cookies map[string]string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(cookies) == 0 {
			return nil
		}
		u, err := url.Parse(pageURL)
		if err != nil {
			return err
		}
		for name, value := range cookies {
			err := network.SetCookie(name, value).
				WithDomain(u.Hostname()).
				WithPath("/").
				Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.ctx, b.cancel = nil, nil
	}
}
