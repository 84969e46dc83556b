// File: internal/engine/actions.go
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/voicepilot/api/schemas"
)

// maxSearchMatches bounds the match list returned by the search action.
const maxSearchMatches = 20

func (e *Engine) runWithTimeout(d time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(e.browserCtx, d)
	defer cancel()
	return e.run(ctx, actions...)
}

// executeNavigate loads a URL and waits for the network to mostly settle.
// Blank destinations are rejected before the driver is touched.
func (e *Engine) executeNavigate(cmd schemas.Command) (*schemas.ActionResult, error) {
	target := strings.TrimSpace(cmd.Target)
	if target == "" || target == "about:blank" {
		return nil, fmt.Errorf("navigate requires a non-blank URL")
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	ctx, cancel := context.WithTimeout(e.browserCtx, e.cfg.Network.ActionTimeout)
	defer cancel()

	if err := e.run(ctx, chromedp.Navigate(target)); err != nil {
		return nil, fmt.Errorf("navigation to %s failed: %w", target, err)
	}

	if e.netWatch != nil {
		if err := e.netWatch.WaitQuiet(ctx, e.cfg.Network.QuietPeriod); err != nil {
			return nil, fmt.Errorf("waiting for %s to settle: %w", target, err)
		}
	}

	var finalURL string
	if err := e.run(ctx, chromedp.Location(&finalURL)); err != nil {
		return nil, fmt.Errorf("reading post-navigation URL: %w", err)
	}

	return &schemas.ActionResult{Action: schemas.ActionNavigate, URL: finalURL}, nil
}

// executeClick resolves an element by text content first when Text is set,
// then by CSS selector, and clicks it after a short settle delay.
func (e *Engine) executeClick(cmd schemas.Command) (*schemas.ActionResult, error) {
	settle := e.cfg.Automation.SettleDelay

	if cmd.Text != "" {
		xp := textMatchXPath(cmd.Text)
		if err := e.runWithTimeout(e.cfg.Network.SelectorTimeout,
			chromedp.WaitVisible(xp, chromedp.BySearch)); err == nil {
			if err := e.runWithTimeout(e.cfg.Network.ActionTimeout,
				chromedp.Sleep(settle),
				chromedp.Click(xp, chromedp.BySearch)); err != nil {
				return nil, fmt.Errorf("clicking element with text %q: %w", cmd.Text, err)
			}
			return &schemas.ActionResult{Action: schemas.ActionClick, Text: cmd.Text}, nil
		}
		e.log.Debug("No visible element matched by text, falling back to selector",
			zap.String("text", cmd.Text), zap.String("selector", cmd.Target))
	}

	if err := e.runWithTimeout(e.cfg.Network.SelectorTimeout,
		chromedp.WaitVisible(cmd.Target, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("element %q not found: %w", cmd.Target, err)
	}
	if err := e.runWithTimeout(e.cfg.Network.ActionTimeout,
		chromedp.Sleep(settle),
		chromedp.Click(cmd.Target, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("clicking %q: %w", cmd.Target, err)
	}

	return &schemas.ActionResult{Action: schemas.ActionClick, Target: cmd.Target}, nil
}

// executeType clears the field and types the value one keystroke at a time,
// pacing like human input.
func (e *Engine) executeType(cmd schemas.Command) (*schemas.ActionResult, error) {
	if err := e.runWithTimeout(e.cfg.Network.SelectorTimeout,
		chromedp.WaitVisible(cmd.Target, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("input %q not found: %w", cmd.Target, err)
	}

	delay := e.cfg.Automation.TypingDelay
	value := cmd.Value

	err := e.runWithTimeout(e.cfg.Network.ActionTimeout,
		chromedp.Focus(cmd.Target, chromedp.ByQuery),
		chromedp.Clear(cmd.Target, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, r := range value {
				if err := chromedp.KeyEvent(string(r)).Do(ctx); err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("typing into %q: %w", cmd.Target, err)
	}

	return &schemas.ActionResult{Action: schemas.ActionType, Target: cmd.Target, Value: value}, nil
}

// executeSearch finds the query text in the current page. The DOM is
// snapshotted and matched offline; the in-page selection moves to the first
// match as a best effort.
func (e *Engine) executeSearch(cmd schemas.Command) (*schemas.ActionResult, error) {
	query := strings.TrimSpace(cmd.Query)
	if query == "" {
		return nil, fmt.Errorf("search requires a non-empty query")
	}

	var pageHTML string
	if err := e.runWithTimeout(e.cfg.Network.ActionTimeout,
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("reading page content: %w", err)
	}

	doc, err := htmlquery.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing page content: %w", err)
	}

	matches, count := findTextMatches(doc, query)

	// Move the visible selection to the first occurrence. Failure here does
	// not invalidate the offline match results.
	if count > 0 {
		if err := e.runWithTimeout(e.cfg.Network.ActionTimeout,
			chromedp.Evaluate(fmt.Sprintf("window.find(%q)", query), nil)); err != nil {
			e.log.Debug("In-page find highlight failed", zap.Error(err))
		}
	}

	return &schemas.ActionResult{
		Action: schemas.ActionSearch,
		Value:  query,
		Values: matches,
		Count:  count,
	}, nil
}

// executeWait waits for a selector to become visible within the duration, or
// just sleeps for the duration when no selector is given.
func (e *Engine) executeWait(cmd schemas.Command) (*schemas.ActionResult, error) {
	duration := time.Duration(cmd.DurationMs) * time.Millisecond

	if cmd.Target != "" {
		if err := e.runWithTimeout(duration,
			chromedp.WaitVisible(cmd.Target, chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("element %q did not appear within %s: %w", cmd.Target, duration, err)
		}
		return &schemas.ActionResult{Action: schemas.ActionWait, Target: cmd.Target, Duration: int(cmd.DurationMs)}, nil
	}

	if err := e.runWithTimeout(duration+time.Second, chromedp.Sleep(duration)); err != nil {
		return nil, fmt.Errorf("wait interrupted: %w", err)
	}
	return &schemas.ActionResult{Action: schemas.ActionWait, Duration: int(cmd.DurationMs)}, nil
}

// executeScroll applies a signed vertical scroll. A "page" amount resolves to
// the viewport height at scroll time.
func (e *Engine) executeScroll(cmd schemas.Command) (*schemas.ActionResult, error) {
	ctx, cancel := context.WithTimeout(e.browserCtx, e.cfg.Network.ActionTimeout)
	defer cancel()

	amountPx := 0
	if cmd.Amount == "page" || cmd.Amount == "" {
		if err := e.run(ctx, chromedp.Evaluate("window.innerHeight", &amountPx)); err != nil {
			return nil, fmt.Errorf("resolving viewport height: %w", err)
		}
	} else {
		px, err := strconv.Atoi(string(cmd.Amount))
		if err != nil {
			return nil, fmt.Errorf("invalid scroll amount %q: %w", cmd.Amount, err)
		}
		amountPx = px
	}

	signed := amountPx
	if cmd.Direction != "down" {
		signed = -amountPx
	}

	if err := e.run(ctx,
		chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", signed), nil),
		chromedp.Sleep(e.cfg.Automation.SettleDelay)); err != nil {
		return nil, fmt.Errorf("scrolling: %w", err)
	}

	return &schemas.ActionResult{
		Action:    schemas.ActionScroll,
		Direction: cmd.Direction,
		AmountPx:  signed,
	}, nil
}

// executeScreenshot captures a full-page image under the configured
// screenshot directory and returns the stored path.
func (e *Engine) executeScreenshot(cmd schemas.Command) (*schemas.ActionResult, error) {
	filename := strings.TrimSpace(cmd.Target)
	if filename == "" {
		filename = fmt.Sprintf("screenshot_%d.png", time.Now().UnixMilli())
	}
	if !strings.HasSuffix(filename, ".png") {
		filename += ".png"
	}

	dir := e.cfg.Automation.ScreenshotDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating screenshot directory: %w", err)
	}

	var buf []byte
	if err := e.runWithTimeout(e.cfg.Network.ActionTimeout,
		chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return nil, fmt.Errorf("writing screenshot to %s: %w", path, err)
	}

	return &schemas.ActionResult{Action: schemas.ActionScreenshot, Path: path}, nil
}

// executeExtract reads text, html, or a named attribute from every element
// matching the selector. Empty values are dropped after trimming.
func (e *Engine) executeExtract(cmd schemas.Command) (*schemas.ActionResult, error) {
	var expr string
	switch cmd.Attribute {
	case "text", "":
		expr = fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(el => el.innerText || '')`, cmd.Target)
	case "html":
		expr = fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(el => el.innerHTML || '')`, cmd.Target)
	default:
		expr = fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(el => el.getAttribute(%q) || '')`,
			cmd.Target, cmd.Attribute)
	}

	var raw []string
	if err := e.runWithTimeout(e.cfg.Network.ActionTimeout,
		chromedp.Evaluate(expr, &raw)); err != nil {
		return nil, fmt.Errorf("extracting %q from %q: %w", cmd.Attribute, cmd.Target, err)
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			values = append(values, trimmed)
		}
	}

	return &schemas.ActionResult{
		Action:    schemas.ActionExtract,
		Target:    cmd.Target,
		Attribute: cmd.Attribute,
		Values:    values,
		Count:     len(values),
	}, nil
}

// findTextMatches walks the rendered text nodes of doc and returns those
// containing query, case-insensitively. The match list is capped; the count
// is not.
func findTextMatches(doc *html.Node, query string) ([]string, int) {
	lowerQuery := strings.ToLower(query)
	matches := make([]string, 0, maxSearchMatches)
	count := 0
	for _, node := range htmlquery.Find(doc, "//*[not(self::script) and not(self::style)]/text()") {
		text := strings.TrimSpace(htmlquery.InnerText(node))
		if text == "" || !strings.Contains(strings.ToLower(text), lowerQuery) {
			continue
		}
		count++
		if len(matches) < maxSearchMatches {
			matches = append(matches, text)
		}
	}
	return matches, count
}

// textMatchXPath matches any element whose direct text content contains the
// given fragment.
func textMatchXPath(text string) string {
	return fmt.Sprintf("//*[text()[contains(., %s)]][not(self::script)][not(self::style)]", xpathLiteral(text))
}

// xpathLiteral quotes a string for embedding in an XPath expression. XPath
// 1.0 has no escape syntax, so strings containing both quote kinds are built
// with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + part + "'")
	}
	b.WriteString(")")
	return b.String()
}
