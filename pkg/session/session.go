// Package session owns the credential lifecycle for the NotebookLM batch
// RPC protocol. Credentials are ephemeral strings scraped from the rendered
// application page and are valid only for the lifetime of the underlying
// browser session; they are never assumed fresh across process restarts.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/notebooklm/pkg/browser"
	"github.com/entrhq/notebooklm/pkg/logging"
)

// ErrAuthenticationRequired indicates no valid login exists and the browser
// is headless, so interactive login is impossible.
var ErrAuthenticationRequired = errors.New("authentication required: run a headed session and log in first")

// ErrTokensNotFound indicates the application page rendered without the
// mandatory session tokens, typically because the user is not logged in.
var ErrTokensNotFound = errors.New("unauthenticated or session tokens not found")

// Page content delimiters for the three session tokens. These are exact
// markers in the serialized page state, matched literally rather than
// parsed, because the surrounding structure is minified and unstable.
const (
	authTokenMarker  = `"SNlM0e":"`
	buildLabelMarker = `"boq_labs-tailwind-`
	sessionIDMarker  = `"FdrFJe":"`
)

// Credentials are the ephemeral session tokens scraped from the page.
// AuthToken and BuildLabel are mandatory; SessionID may be empty.
type Credentials struct {
	AuthToken  string
	BuildLabel string
	SessionID  string
}

// Driver is the subset of the browser capability the manager needs.
// *browser.Browser satisfies it; tests substitute a fake.
type Driver interface {
	Navigate(url string) error
	URL() string
	Content() (string, error)
	WaitForURL(pattern string) error
	Cookies() ([]browser.Cookie, error)
}

// Manager acquires and refreshes session credentials through the browser.
type Manager struct {
	driver      Driver
	logger      *logging.Logger
	baseURL     string
	loginDomain string
	headless    bool
	retryDelay  time.Duration

	creds   Credentials
	cookies []browser.Cookie

	// sleep is replaced in tests to avoid real delays
	sleep func(context.Context, time.Duration) error
}

// NewManager creates a session manager over the given driver.
func NewManager(driver Driver, logger *logging.Logger, baseURL, loginDomain string, headless bool, retryDelay time.Duration) *Manager {
	return &Manager{
		driver:      driver,
		logger:      logger,
		baseURL:     baseURL,
		loginDomain: loginDomain,
		headless:    headless,
		retryDelay:  retryDelay,
		sleep:       sleepContext,
	}
}

// Acquire navigates to the application entry point, completes login if
// needed, and scrapes fresh session tokens. It is idempotent within a
// browser session and may be re-invoked to refresh.
func (m *Manager) Acquire(ctx context.Context) (Credentials, error) {
	m.logger.Infof("navigating to %s to acquire session tokens", m.baseURL)

	if err := m.driver.Navigate(m.baseURL); err != nil {
		return Credentials{}, fmt.Errorf("failed to reach application: %w", err)
	}

	if strings.Contains(m.driver.URL(), m.loginDomain) {
		if m.headless {
			return Credentials{}, ErrAuthenticationRequired
		}

		// Suspend until a human completes login out-of-band. No timeout:
		// the page location returning to the application domain is the
		// only completion signal.
		m.logger.Warnf("login required, waiting for interactive login")
		if err := m.driver.WaitForURL(m.baseURL + "/**"); err != nil {
			return Credentials{}, fmt.Errorf("interactive login did not complete: %w", err)
		}
		m.logger.Infof("login detected")
	}

	creds, err := m.scrapeTokens()
	if err != nil {
		// The SPA may still be rendering; wait once and rescan.
		if sleepErr := m.sleep(ctx, m.retryDelay); sleepErr != nil {
			return Credentials{}, sleepErr
		}
		creds, err = m.scrapeTokens()
		if err != nil {
			return Credentials{}, err
		}
	}

	cookies, err := m.driver.Cookies()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to capture cookie jar: %w", err)
	}

	m.creds = creds
	m.cookies = cookies
	m.logger.Infof("session tokens acquired, build label %s", creds.BuildLabel)
	return creds, nil
}

// Credentials returns the most recently acquired credentials.
func (m *Manager) Credentials() Credentials {
	return m.creds
}

// Cookies returns the cookie jar captured during the last Acquire.
func (m *Manager) Cookies() []browser.Cookie {
	return m.cookies
}

func (m *Manager) scrapeTokens() (Credentials, error) {
	content, err := m.driver.Content()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read page content: %w", err)
	}

	authToken := scanDelimited(content, authTokenMarker, `"`)
	buildLabel := scanBuildLabel(content)
	sessionID := scanDelimited(content, sessionIDMarker, `"`)

	if authToken == "" || buildLabel == "" {
		return Credentials{}, ErrTokensNotFound
	}

	return Credentials{
		AuthToken:  authToken,
		BuildLabel: buildLabel,
		SessionID:  sessionID,
	}, nil
}

// scanDelimited returns the text between the first occurrence of marker and
// the following terminator, or "" if either is absent.
func scanDelimited(content, marker, terminator string) string {
	start := strings.Index(content, marker)
	if start == -1 {
		return ""
	}
	start += len(marker)

	end := strings.Index(content[start:], terminator)
	if end == -1 {
		return ""
	}
	return content[start : start+end]
}

// scanBuildLabel extracts the full build label, including the fixed prefix
// that identifies it (the marker opens with the quote, the value does not).
func scanBuildLabel(content string) string {
	rest := scanDelimited(content, buildLabelMarker, `"`)
	if rest == "" {
		return ""
	}
	return strings.TrimPrefix(buildLabelMarker, `"`) + rest
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
