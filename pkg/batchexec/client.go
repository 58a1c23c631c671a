// Package batchexec implements the client side of the batch RPC protocol:
// envelope construction, authenticated submission through the browser, and
// response frame parsing. Conventional calls go through an in-page fetch
// because the endpoint's origin and cookie checks only pass transparently
// in the page's own execution context; streamed calls use the context's
// request API to get raw bytes back.
package batchexec

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/entrhq/notebooklm/pkg/browser"
	"github.com/entrhq/notebooklm/pkg/logging"
	"github.com/entrhq/notebooklm/pkg/session"
)

// Request ids only need to distinguish calls within a short window for
// server-side logging; a random integer in a fixed range is sufficient.
const (
	reqIDBase  = 100000
	reqIDRange = 100000
)

// rpcFetchScript runs in the page context. Argument order: url, envelope,
// auth token. Returning status and text (rather than throwing on a bad
// status) keeps the transport error structured on the Go side.
const rpcFetchScript = `
async ([url, envelope, at]) => {
    const body = new URLSearchParams();
    body.append("f.req", envelope);
    body.append("at", at);

    const response = await fetch(url, {
        method: "POST",
        headers: {
            "Content-Type": "application/x-www-form-urlencoded;charset=UTF-8",
            "X-Same-Domain": "1"
        },
        body: body,
    });

    return { status: response.status, text: await response.text() };
}
`

// PageTransport is the browser capability the codec submits calls through.
// *browser.Browser satisfies it; tests substitute a fake.
type PageTransport interface {
	Evaluate(expression string, arg interface{}) (interface{}, error)
	PostForm(url string, form map[string]string, headers map[string]string, timeoutMs float64) (*browser.Response, error)
}

// CredentialSource supplies the current session credentials.
// *session.Manager satisfies it.
type CredentialSource interface {
	Credentials() session.Credentials
}

// Client builds, submits, and parses batch RPC calls.
type Client struct {
	transport PageTransport
	creds     CredentialSource
	logger    *logging.Logger
	endpoint  string
	locale    string
}

// NewClient creates a codec bound to the given transport and credentials.
func NewClient(transport PageTransport, creds CredentialSource, logger *logging.Logger, endpoint, locale string) *Client {
	return &Client{
		transport: transport,
		creds:     creds,
		logger:    logger,
		endpoint:  endpoint,
		locale:    locale,
	}
}

// Call submits one conventional RPC and returns its parsed frame.
// A nil frame with nil error means the response carried no data; callers
// must not treat that as a transport failure.
func (c *Client) Call(ctx context.Context, rpcID string, payload interface{}) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	envelope, err := BuildEnvelope(rpcID, payload)
	if err != nil {
		return nil, err
	}

	creds := c.creds.Credentials()
	callURL := c.endpoint + "?" + c.buildQuery(rpcID, creds)

	result, err := c.transport.Evaluate(rpcFetchScript, []interface{}{callURL, envelope, creds.AuthToken})
	if err != nil {
		c.logger.Errorf("rpc %s failed: %v", rpcID, err)
		return nil, fmt.Errorf("rpc %s failed: %w", rpcID, err)
	}

	status, text, err := splitFetchResult(result)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", rpcID, err)
	}
	if status < 200 || status >= 300 {
		c.logger.Errorf("rpc %s returned status %d", rpcID, status)
		return nil, &TransportError{Status: status}
	}

	frame := ParseResponse(text)
	if frame == nil {
		c.logger.Warnf("rpc %s returned no payload frame", rpcID)
	}
	return frame, nil
}

// CallStreamed submits a raw f.req payload to a streamed endpoint and
// returns the unparsed response bytes. Generation is slow, so the timeout
// here is generous and caller-supplied.
func (c *Client) CallStreamed(ctx context.Context, endpoint string, fReq interface{}, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(fReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode streamed request: %w", err)
	}

	creds := c.creds.Credentials()
	callURL := endpoint + "?" + c.buildStreamQuery(creds)

	c.logger.Infof("executing streamed rpc, payload %s", truncate(string(encoded), 200))

	resp, err := c.transport.PostForm(callURL, map[string]string{
		"f.req": string(encoded),
		"at":    creds.AuthToken,
	}, map[string]string{
		"X-Same-Domain": "1",
	}, float64(timeout.Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("streamed rpc failed: %w", err)
	}
	if !resp.OK() {
		return nil, &TransportError{Status: resp.Status, StatusText: resp.StatusText}
	}

	return resp.Body, nil
}

// buildQuery assembles the conventional RPC query string. Parameter order
// mirrors what the web application itself sends.
func (c *Client) buildQuery(rpcID string, creds session.Credentials) string {
	pairs := []string{
		"rpcids=" + url.QueryEscape(rpcID),
		"source-path=" + url.QueryEscape("/"),
		"bl=" + url.QueryEscape(creds.BuildLabel),
		"f.sid=" + url.QueryEscape(creds.SessionID),
		"hl=" + url.QueryEscape(c.locale),
		"rt=c",
		"_reqid=" + strconv.Itoa(newReqID()),
	}
	return strings.Join(pairs, "&")
}

func (c *Client) buildStreamQuery(creds session.Credentials) string {
	pairs := []string{
		"bl=" + url.QueryEscape(creds.BuildLabel),
		"f.sid=" + url.QueryEscape(creds.SessionID),
		"hl=" + url.QueryEscape(c.locale),
		"_reqid=" + strconv.Itoa(newReqID()),
		"rt=c",
	}
	return strings.Join(pairs, "&")
}

func newReqID() int {
	return reqIDBase + rand.Intn(reqIDRange)
}

// splitFetchResult unpacks the { status, text } object returned by the
// in-page fetch script.
func splitFetchResult(result interface{}) (int, string, error) {
	obj, ok := result.(map[string]interface{})
	if !ok {
		return 0, "", fmt.Errorf("unexpected fetch result shape %T", result)
	}

	status, ok := obj["status"].(float64)
	if !ok {
		if i, isInt := obj["status"].(int); isInt {
			status = float64(i)
		} else {
			return 0, "", fmt.Errorf("fetch result missing status")
		}
	}

	text, _ := obj["text"].(string)
	return int(status), text, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
