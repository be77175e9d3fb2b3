package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/devplayground/playground/pkg/core"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Default timings for headless renders.
const (
	DefaultSettle  = 250 * time.Millisecond
	DefaultTimeout = 10 * time.Second
)

// ErrBrowserUnavailable is returned when no browser can be launched.
var ErrBrowserUnavailable = errors.New("no headless browser available")

// HeadlessOptions configures a HeadlessRenderer.
type HeadlessOptions struct {
	// Bin is the browser binary. Empty means launcher.LookPath.
	Bin string
	// ControlURL connects to an already running browser instead of launching one.
	ControlURL string
	// Settle is how long to wait after load for asynchronous errors.
	Settle time.Duration
	// Timeout bounds a single render.
	Timeout time.Duration
	OnError ErrorHandler
	Logger  *slog.Logger
}

// HeadlessRenderer hosts each surface in a sandboxed iframe inside a
// fresh incognito page of a headless browser. Renders are serialised and
// every render tears down the previous page and browser context.
type HeadlessRenderer struct {
	mu       sync.Mutex
	opts     HeadlessOptions
	logger   *slog.Logger
	launch   browserProcess
	newProc  func(bin string) browserProcess
	browser  *rod.Browser
	context  *rod.Browser
	page     *rod.Page
	session  *Session
	captured []core.RenderError
}

var _ Renderer = (*HeadlessRenderer)(nil)

// browserProcess is the part of *launcher.Launcher the renderer drives.
type browserProcess interface {
	Launch() (string, error)
	Kill()
	Cleanup()
}

func launchHeadless(bin string) browserProcess {
	return launcher.New().Bin(bin).Headless(true)
}

// BrowserPath returns the browser binary the launcher would use.
func BrowserPath() (string, bool) {
	return launcher.LookPath()
}

// NewHeadlessRenderer creates a renderer. The browser is launched lazily
// on the first render.
func NewHeadlessRenderer(opts HeadlessOptions) *HeadlessRenderer {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &HeadlessRenderer{opts: opts, logger: logger, newProc: launchHeadless}
	r.session = NewSession(WithLogger(logger), WithErrorHandler(r.deliver))
	return r
}

// Render hosts bundle and delivers each captured error to OnError once.
func (r *HeadlessRenderer) Render(ctx context.Context, bundle core.SourceBundle) error {
	_, err := r.Check(ctx, bundle)
	return err
}

// Check renders bundle and returns the errors its scripts raised.
func (r *HeadlessRenderer) Check(ctx context.Context, bundle core.SourceBundle) ([]core.RenderError, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.start(ctx); err != nil {
		return nil, err
	}
	r.disposePage()
	r.captured = nil

	surface := r.session.Render(bundle)

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	incognito, err := r.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	r.context = incognito

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	r.page = page
	page = page.Context(ctx)

	if err := page.SetDocumentContent(hostDocument(surface.Document)); err != nil {
		return nil, fmt.Errorf("failed to load surface: %w", err)
	}
	if err := page.Wait(rod.Eval(`() => window.__surfaceLoaded === true`)); err != nil {
		return nil, fmt.Errorf("surface did not load: %w", err)
	}

	select {
	case <-time.After(r.opts.Settle):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	res, err := page.Eval(`() => JSON.stringify(window.__surfaceErrors || [])`)
	if err != nil {
		return nil, fmt.Errorf("failed to collect errors: %w", err)
	}

	var posted []struct {
		Surface string `json:"surface"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), &posted); err != nil {
		return nil, fmt.Errorf("failed to decode errors: %w", err)
	}
	for _, p := range posted {
		r.session.Report(p.Surface, p.Message)
	}

	r.logger.Debug("headless render complete",
		slog.String("surface", surface.ID),
		slog.Int("errors", len(r.captured)))

	return r.captured, nil
}

// Close disposes the page, browser context and browser.
func (r *HeadlessRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disposePage()
	r.session.Dispose()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launch != nil {
		r.launch.Kill()
		r.launch.Cleanup()
		r.launch = nil
	}
	return err
}

func (r *HeadlessRenderer) deliver(surfaceID string, e core.RenderError) {
	r.captured = append(r.captured, e)
	if r.opts.OnError != nil {
		r.opts.OnError(surfaceID, e)
	}
}

func (r *HeadlessRenderer) start(ctx context.Context) error {
	if r.browser != nil {
		return nil
	}

	var launched browserProcess
	controlURL := r.opts.ControlURL
	if controlURL == "" {
		bin := r.opts.Bin
		if bin == "" {
			path, ok := launcher.LookPath()
			if !ok {
				return ErrBrowserUnavailable
			}
			bin = path
		}

		proc := r.newProc(bin)
		u, err := proc.Launch()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
		}
		launched = proc
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if launched != nil {
			launched.Kill()
			launched.Cleanup()
		}
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	r.launch = launched
	// Detach from the first caller's context so later renders keep working.
	r.browser = browser.Context(context.Background())
	r.logger.Debug("headless browser started")
	return nil
}

func (r *HeadlessRenderer) disposePage() {
	if r.page != nil {
		_ = r.page.Close()
		r.page = nil
	}
	if r.context != nil {
		_ = r.context.Close()
		r.context = nil
	}
}

// hostDocument embeds a surface document in a sandboxed iframe and
// collects the messages it posts.
func hostDocument(document string) string {
	return `<!DOCTYPE html>
<html>
<head>
<script>
window.__surfaceErrors = [];
window.addEventListener("message", function (e) {
  if (e.data && e.data.type === "` + MessageType + `") {
    window.__surfaceErrors.push({ surface: e.data.surface, message: e.data.message });
  }
});
</script>
</head>
<body>
<iframe sandbox="` + SandboxPolicy + `" onload="window.__surfaceLoaded = true" srcdoc="` + html.EscapeString(document) + `"></iframe>
</body>
</html>`
}
