package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dgallion1/firdesk/internal/fir"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ChromeRenderer prints the FIR form to PDF with headless Chrome. The browser
// is launched on first use and shared; each render gets its own tab.
type ChromeRenderer struct {
	bin string
	log *slog.Logger
	sem chan struct{}

	mu      sync.Mutex
	launch  process
	browser *rod.Browser
}

var _ Renderer = (*ChromeRenderer)(nil)

// process is the launched browser process.
type process interface {
	Kill()
}

// NewChromeRenderer creates a renderer. bin may be empty to let rod locate or
// download a browser. maxConcurrent bounds simultaneous renders.
func NewChromeRenderer(bin string, maxConcurrent int, log *slog.Logger) *ChromeRenderer {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &ChromeRenderer{
		bin: bin,
		log: log,
		sem: make(chan struct{}, maxConcurrent),
	}
}

// Render fills the HTML form and prints it as A4 PDF.
func (c *ChromeRenderer) Render(ctx context.Context, r fir.Report) ([]byte, error) {
	html, err := FillHTML(r)
	if err != nil {
		return nil, err
	}
	return c.PrintHTML(ctx, string(html))
}

// PrintHTML prints an HTML document to PDF.
func (c *ChromeRenderer) PrintHTML(ctx context.Context, html string) ([]byte, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, &RenderingError{Stage: "queue", Err: ctx.Err()}
	}

	browser, err := c.ensureBrowser()
	if err != nil {
		return nil, &RenderingError{Stage: "launch", Err: err}
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &RenderingError{Stage: "page", Err: err}
	}
	defer func() {
		if err := page.Close(); err != nil {
			c.log.Warn("close page failed", "error", err)
		}
	}()
	page = page.Context(ctx)

	if err := page.SetDocumentContent(html); err != nil {
		return nil, &RenderingError{Stage: "content", Err: err}
	}
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, &RenderingError{Stage: "print", Err: err}
	}
	pdf, err := io.ReadAll(stream)
	if err != nil {
		return nil, &RenderingError{Stage: "print", Err: err}
	}
	c.log.Info("rendered pdf", "bytes", len(pdf))
	return pdf, nil
}

func (c *ChromeRenderer) ensureBrowser() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		if _, err := c.browser.Version(); err == nil {
			return c.browser, nil
		}
		c.log.Warn("stale browser connection, relaunching")
		_ = c.shutdownLocked()
	}

	l := launcher.New().Headless(true).NoSandbox(true)
	if c.bin != "" {
		l = l.Bin(c.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	c.launch, c.browser = l, browser
	c.log.Info("chrome started", "bin", c.bin)
	return browser, nil
}

// Close shuts the browser down if it was started.
func (c *ChromeRenderer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdownLocked()
}

// shutdownLocked closes the connection and kills the browser process. The
// process is killed even when the connection is already dead.
func (c *ChromeRenderer) shutdownLocked() error {
	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	if c.launch != nil {
		c.launch.Kill()
		c.launch = nil
	}
	return err
}
