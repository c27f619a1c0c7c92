package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// Page is the subset of a browser tab the session drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Exists(ctx context.Context, selector string, timeout time.Duration) bool
	Click(ctx context.Context, selector string, timeout time.Duration) error
	Content(ctx context.Context) (text, html string, err error)
	Close() error
}

type LaunchOptions struct {
	Headless bool
	DataDir  string
}

// Launcher starts a browser and returns its first tab.
type Launcher func(ctx context.Context, opts LaunchOptions) (Page, error)

const (
	navigateTimeout = 30 * time.Second
	readTimeout     = 10 * time.Second
)

type chromePage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// LaunchChrome starts a Chrome instance with a persistent profile in
// opts.DataDir.
func LaunchChrome(ctx context.Context, opts LaunchOptions) (Page, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.UserDataDir(opts.DataDir),
		chromedp.WindowSize(1366, 768),
		chromedp.NoSandbox,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	// The first Run allocates the browser and ties it to the context it is
	// given, so it must be the long-lived tab context.
	unwatch := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx)
	unwatch()
	if err != nil {
		cancel()
		allocCancel()
		return nil, err
	}

	return &chromePage{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	unwatch := context.AfterFunc(ctx, cancel)
	defer unwatch()

	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, navigateTimeout, chromedp.Navigate(url))
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var loc string
	err := p.run(ctx, readTimeout, chromedp.Location(&loc))
	return loc, err
}

func (p *chromePage) Exists(ctx context.Context, selector string, timeout time.Duration) bool {
	return p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)) == nil
}

func (p *chromePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.Click(selector, chromedp.ByQuery))
}

func (p *chromePage) Content(ctx context.Context) (string, string, error) {
	var text, html string
	err := p.run(ctx, readTimeout,
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return text, html, err
}

func (p *chromePage) Close() error {
	p.cancel()
	p.allocCancel()
	return nil
}
