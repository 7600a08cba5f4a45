package report

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultPDFTimeout = 30 * time.Second

var ErrChromeNotFound = errors.New("chrome or chromium executable not found")

var chromeCandidates = []string{
	"/usr/bin/chromium-browser",
	"/usr/bin/chromium",
	"/usr/bin/google-chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

const printCSS = `body{font-family:-apple-system,"Segoe UI",Helvetica,Arial,sans-serif;font-size:11pt;color:#1c1917;margin:0;padding:0.6rem;}
html,body,*{-webkit-print-color-adjust:exact;print-color-adjust:exact;}
h1{font-size:1.5rem;border-bottom:2px solid #1d4ed8;padding-bottom:0.3rem;}
h2{font-size:1.15rem;margin-top:1.4rem;}
blockquote{margin:0.8rem 0;padding:0.4rem 0.8rem;background:#fef3c7;border-left:4px solid #d97706;}
table{width:100%;border-collapse:collapse;font-size:0.8rem;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
a{color:#1d4ed8;}
@media print{@page{size:auto;margin:12mm;} body{padding:0;}}`

// PDFRenderer prints report HTML to PDF through headless Chrome.
type PDFRenderer struct {
	chromePath string
	timeout    time.Duration
}

// NewPDFRenderer uses chromePath when set, otherwise the first known
// Chrome/Chromium install found on this machine.
func NewPDFRenderer(chromePath string, timeout time.Duration) *PDFRenderer {
	if chromePath == "" {
		chromePath = detectChromePath(chromeCandidates)
	}
	if timeout <= 0 {
		timeout = defaultPDFTimeout
	}
	return &PDFRenderer{chromePath: chromePath, timeout: timeout}
}

func (r *PDFRenderer) Render(ctx context.Context, rep Report, title string) ([]byte, error) {
	if r.chromePath == "" {
		return nil, fmt.Errorf("render pdf: %w (set CHROME_PATH or --chrome-path)", ErrChromeNotFound)
	}
	if _, err := os.Stat(r.chromePath); err != nil {
		return nil, fmt.Errorf("render pdf: %w: %s", ErrChromeNotFound, r.chromePath)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.ExecPath(r.chromePath),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(printDocument(title, rep.HTML)))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

// printDocument wraps the rendered report body in a standalone page.
func printDocument(title, body string) string {
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + printCSS + "</style></head><body>" + body + "</body></html>"
}

func detectChromePath(candidates []string) string {
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
