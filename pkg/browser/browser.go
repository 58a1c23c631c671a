package browser

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
)

// Browser owns one Playwright instance with a single persistent context and
// its active page. The persistent profile directory keeps login cookies
// across process restarts; everything scraped from the page (tokens) does
// not survive and must be re-acquired per session.
//
// The page is a serialized resource: callers must not issue a second RPC
// through it while one is outstanding.
type Browser struct {
	pw      *playwright.Playwright
	context playwright.BrowserContext
	page    playwright.Page
}

// Options configures the browser launch.
type Options struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool

	// UserDataDir is the persistent profile directory.
	UserDataDir string
}

// launchArgs are required for the remote application to accept the
// automated browser as a regular client.
var launchArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--ignore-certificate-errors",
	"--no-sandbox",
	"--disable-setuid-sandbox",
}

// Launch installs and starts Playwright, then opens a persistent Chromium
// context rooted at opts.UserDataDir.
func Launch(opts Options) (*Browser, error) {
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	context, err := pw.Chromium.LaunchPersistentContext(
		opts.UserDataDir,
		playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(opts.Headless),
			Args:     launchArgs,
		},
	)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch persistent context: %w", err)
	}

	// Reuse the profile's initial page if one is already open
	var page playwright.Page
	if pages := context.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = context.NewPage()
		if err != nil {
			context.Close()
			pw.Stop()
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
	}

	return &Browser{
		pw:      pw,
		context: context,
		page:    page,
	}, nil
}

// Navigate navigates the active page to the specified URL.
func (b *Browser) Navigate(url string) error {
	if _, err := b.page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// URL returns the current location of the active page.
func (b *Browser) URL() string {
	return b.page.URL()
}

// Content returns the full rendered HTML of the active page.
func (b *Browser) Content() (string, error) {
	content, err := b.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// WaitForURL blocks until the page location matches the glob pattern.
// There is no timeout: this is the suspension point for interactive login,
// which completes only when a human finishes authenticating out-of-band.
func (b *Browser) WaitForURL(pattern string) error {
	err := b.page.WaitForURL(pattern, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(0),
	})
	if err != nil {
		return fmt.Errorf("wait for url failed: %w", err)
	}
	return nil
}

// Evaluate executes JavaScript in the page context and returns its result.
func (b *Browser) Evaluate(expression string, arg interface{}) (interface{}, error) {
	result, err := b.page.Evaluate(expression, arg)
	if err != nil {
		return nil, fmt.Errorf("javascript execution failed: %w", err)
	}
	return result, nil
}

// Cookies returns the context's current cookie jar.
func (b *Browser) Cookies() ([]Cookie, error) {
	raw, err := b.context.Cookies()
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return cookies, nil
}

// PostForm issues a POST with URL-encoded form fields through the context's
// request API. It shares the browser's cookies but runs outside the page
// sandbox, so the raw response bytes come back unmodified.
func (b *Browser) PostForm(url string, form map[string]string, headers map[string]string, timeoutMs float64) (*Response, error) {
	formData := make(map[string]interface{}, len(form))
	for k, v := range form {
		formData[k] = v
	}

	opts := playwright.APIRequestContextPostOptions{
		Form:    formData,
		Headers: headers,
	}
	if timeoutMs > 0 {
		opts.Timeout = playwright.Float(timeoutMs)
	}

	resp, err := b.context.Request().Post(url, opts)
	if err != nil {
		return nil, fmt.Errorf("form post failed: %w", err)
	}
	return newResponse(resp)
}

// Get issues an authenticated GET through the context's request API.
func (b *Browser) Get(url string, headers map[string]string) (*Response, error) {
	resp, err := b.context.Request().Get(url, playwright.APIRequestContextGetOptions{
		Headers: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	return newResponse(resp)
}

func newResponse(resp playwright.APIResponse) (*Response, error) {
	body, err := resp.Body()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{
		Status:     resp.Status(),
		StatusText: resp.StatusText(),
		Body:       body,
	}, nil
}

// Close shuts down the context and stops Playwright.
func (b *Browser) Close() error {
	_ = b.page.Close() // Ignore errors, continue cleanup
	if err := b.context.Close(); err != nil {
		b.pw.Stop()
		return fmt.Errorf("failed to close context: %w", err)
	}
	if err := b.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}
