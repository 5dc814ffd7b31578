// Package pdf prints rendered resume HTML to a single A4 page with headless
// Chromium (go-rod).
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// A4 at 96 CSS px per inch.
const (
	A4WidthPx  = 793.7
	A4HeightPx = 1122.5

	minScale = 0.1
	maxScale = 1.0
)

// ErrBrowserUnavailable 表示无法启动或连接 Chromium。
var ErrBrowserUnavailable = errors.New("browser unavailable")

// Options configures the browser used for printing.
type Options struct {
	// Bin is the Chromium binary; empty means launcher.LookPath.
	Bin     string
	Timeout time.Duration
}

// Exporter prints HTML documents. Each call starts its own browser, so an
// Exporter is safe for concurrent use.
type Exporter struct {
	opts   Options
	logger *slog.Logger
}

func NewExporter(opts Options, logger *slog.Logger) *Exporter {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{opts: opts, logger: logger}
}

// FitScale returns the uniform scale that makes content of contentPx fit
// into pagePx, clamped to the range Chromium accepts. Content that already
// fits (allowing one pixel of rounding) is printed at 1.
func FitScale(contentPx, pagePx float64) float64 {
	if pagePx <= 0 || contentPx <= pagePx+1 || math.IsNaN(contentPx) {
		return maxScale
	}
	scale := math.Floor(pagePx/contentPx*1000) / 1000
	return min(max(scale, minScale), maxScale)
}

// Export prints html to exactly one A4 page. Content taller than the page
// is scaled down uniformly rather than spilling onto a second page.
func (e *Exporter) Export(ctx context.Context, html []byte) ([]byte, error) {
	page, cleanup, err := e.openPage(ctx, html)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	height, err := contentHeight(page)
	if err != nil {
		return nil, err
	}
	scale := FitScale(height, A4HeightPx)
	e.logger.Info("PDF: content measured",
		slog.Float64("content_px", height),
		slog.Float64("scale", scale),
	)

	params := &proto.PagePrintToPDF{
		PrintBackground: true,
		Scale:           float64Ptr(scale),
		PaperWidth:      float64Ptr(8.27),
		PaperHeight:     float64Ptr(11.69),
		MarginTop:       float64Ptr(0),
		MarginBottom:    float64Ptr(0),
		MarginLeft:      float64Ptr(0),
		MarginRight:     float64Ptr(0),
		PageRanges:      "1",
	}
	reader, err := page.PDF(params)
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}

// Screenshot 截取渲染后的 A4 页面（.page 元素），返回 JPEG，用作缩略图。
func (e *Exporter) Screenshot(ctx context.Context, html []byte, quality int) ([]byte, error) {
	page, cleanup, err := e.openPage(ctx, html)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	element, err := page.Timeout(5 * time.Second).Element(".page")
	if err == nil {
		if data, shotErr := element.Screenshot(proto.PageCaptureScreenshotFormatJpeg, quality); shotErr == nil {
			return data, nil
		}
	}

	req := &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: intPtr(quality),
	}
	data, err := page.Screenshot(true, req)
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}

func (e *Exporter) openPage(ctx context.Context, html []byte) (_ *rod.Page, cleanup func(), err error) {
	cleanup = func() {}

	launch := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)
	defer func() {
		if err != nil {
			launch.Cleanup()
		}
	}()

	if e.opts.Bin != "" {
		launch = launch.Bin(e.opts.Bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, cleanup, fmt.Errorf("%w: launch chromium: %v", ErrBrowserUnavailable, err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, cleanup, fmt.Errorf("%w: connect browser: %v", ErrBrowserUnavailable, err)
	}

	page, err := browser.Timeout(e.opts.Timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, cleanup, fmt.Errorf("create page: %w", err)
	}
	cleanup = func() {
		_ = page.Close()
		_ = browser.Close()
		launch.Cleanup()
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	page = page.Timeout(e.opts.Timeout)
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             int(math.Ceil(A4WidthPx)),
		Height:            int(math.Ceil(A4HeightPx)),
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, cleanup, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, cleanup, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, cleanup, fmt.Errorf("wait load: %w", err)
	}

	// 等待字体就绪，避免回退字体的度量影响高度测量
	if _, evalErr := page.Timeout(5 * time.Second).Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		e.logger.Warn("PDF: document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	if err := (proto.EmulationSetEmulatedMedia{Media: "print"}).Call(page); err != nil {
		return nil, cleanup, fmt.Errorf("set emulated media to print: %w", err)
	}
	return page, cleanup, nil
}

func contentHeight(page *rod.Page) (float64, error) {
	res, err := page.Eval(`() => Math.max(
	  document.documentElement.scrollHeight,
	  document.body ? document.body.scrollHeight : 0
	)`)
	if err != nil {
		return 0, fmt.Errorf("measure content: %w", err)
	}
	return res.Value.Num(), nil
}

func float64Ptr(value float64) *float64 {
	return &value
}

func intPtr(value int) *int {
	return &value
}
