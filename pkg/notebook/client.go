// Package notebook sequences the remote workflow: ensure a notebook and
// source exist for an input video, trigger generation, and poll until an
// artifact is ready. All ordering is enforced by sequential suspension on
// one browser session; no two RPCs run in parallel against it.
package notebook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gobwas/glob"

	"github.com/entrhq/notebooklm/pkg/batchexec"
	"github.com/entrhq/notebooklm/pkg/browser"
	"github.com/entrhq/notebooklm/pkg/cache"
	"github.com/entrhq/notebooklm/pkg/config"
	"github.com/entrhq/notebooklm/pkg/logging"
)

// Caller submits RPCs. *batchexec.Client satisfies it; tests use a mock.
type Caller interface {
	Call(ctx context.Context, rpcID string, payload interface{}) (batchexec.Frame, error)
	CallStreamed(ctx context.Context, endpoint string, fReq interface{}, timeout time.Duration) ([]byte, error)
}

// Fetcher issues authenticated GETs through the browser request context.
type Fetcher interface {
	Get(url string, headers map[string]string) (*browser.Response, error)
}

// Client is the workflow orchestrator over one logical session.
type Client struct {
	rpc     Caller
	fetcher Fetcher
	store   *cache.Store
	lastRun *cache.LastRun
	cfg     *config.Config
	logger  *logging.Logger

	artifactPatterns []glob.Glob

	// sleep is replaced in tests to avoid real delays
	sleep func(context.Context, time.Duration) error
}

// NewClient wires an orchestrator from its collaborators and compiles the
// artifact URL patterns.
func NewClient(rpc Caller, fetcher Fetcher, store *cache.Store, lastRun *cache.LastRun, cfg *config.Config, logger *logging.Logger) (*Client, error) {
	patterns := make([]glob.Glob, 0, len(cfg.ArtifactURLPatterns))
	for _, p := range cfg.ArtifactURLPatterns {
		compiled, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid artifact url pattern %q: %w", p, err)
		}
		patterns = append(patterns, compiled)
	}

	return &Client{
		rpc:              rpc,
		fetcher:          fetcher,
		store:            store,
		lastRun:          lastRun,
		cfg:              cfg,
		logger:           logger,
		artifactPatterns: patterns,
		sleep:            sleepContext,
	}, nil
}

// PrepareNotebook ensures a notebook with the video attached as a source
// exists for videoURL and returns both identifiers. When the cache already
// holds both, no RPCs are issued at all.
func (c *Client) PrepareNotebook(ctx context.Context, videoURL string) (string, string, error) {
	entry, _ := c.store.Get(videoURL)
	if entry.Complete() {
		c.logger.Infof("cache hit, reusing notebook %s", entry.NotebookID)
		return entry.NotebookID, entry.SourceID, nil
	}

	notebookID := entry.NotebookID
	sourceID := entry.SourceID

	if notebookID == "" {
		// A source id without its notebook can only come from a
		// hand-edited cache file; it belongs to nothing we know about.
		if sourceID != "" {
			c.logger.Warnf("discarding orphaned source id %s for %s", sourceID, videoURL)
			sourceID = ""
		}

		var err error
		notebookID, err = c.createNotebook(ctx)
		if err != nil {
			return "", "", err
		}

		// Persist the notebook id on its own so a later failure does not
		// force re-creation.
		c.store.Put(videoURL, cache.Entry{NotebookID: notebookID})
		if err := c.lastRun.Set(notebookID); err != nil {
			c.logger.Warnf("failed to record last run: %v", err)
		}
	}

	if sourceID == "" {
		var err error
		sourceID, err = c.addSource(ctx, videoURL, notebookID)
		if err != nil {
			return "", "", err
		}
		c.store.Put(videoURL, cache.Entry{NotebookID: notebookID, SourceID: sourceID})
	}

	return notebookID, sourceID, nil
}

func (c *Client) createNotebook(ctx context.Context) (string, error) {
	c.logger.Infof("creating notebook")

	frame, err := c.rpc.Call(ctx, rpcCreateNotebook, createNotebookPayload())
	if err != nil {
		return "", fmt.Errorf("create notebook: %w", err)
	}
	if frame == nil {
		return "", fmt.Errorf("create notebook: %w", ErrMissingFrame)
	}

	inner, err := frame.DecodeInner()
	if err != nil {
		return "", fmt.Errorf("create notebook: %w", err)
	}

	notebookID, err := batchexec.CreatedNotebookID(inner)
	if err != nil {
		return "", fmt.Errorf("create notebook: %w", err)
	}

	c.logger.Infof("notebook created: %s", notebookID)
	return notebookID, nil
}

func (c *Client) addSource(ctx context.Context, videoURL, notebookID string) (string, error) {
	c.logger.Infof("adding source %s to notebook %s", videoURL, notebookID)

	frame, err := c.rpc.Call(ctx, rpcAddSource, addSourcePayload(videoURL, notebookID))
	if err != nil {
		return "", fmt.Errorf("add source: %w", err)
	}
	if frame == nil {
		return "", fmt.Errorf("add source: %w", ErrMissingFrame)
	}

	inner, err := frame.DecodeInner()
	if err != nil {
		if errors.Is(err, batchexec.ErrNoPayload) {
			// The service signals an unsupported input by returning no
			// data instead of an error.
			return "", fmt.Errorf("add source returned no data: %w", ErrSourceRejected)
		}
		return "", fmt.Errorf("add source: %w", err)
	}

	sourceID := findCanonicalID(inner)
	if sourceID == "" {
		return "", fmt.Errorf("add source response carried no identifier: %w", ErrSourceRejected)
	}

	c.logger.Infof("source added: %s", sourceID)
	return sourceID, nil
}

// GenerateInfographic runs the full workflow for videoURL and returns the
// generated artifact URL.
func (c *Client) GenerateInfographic(ctx context.Context, videoURL string) (string, error) {
	notebookID, sourceID, err := c.PrepareNotebook(ctx, videoURL)
	if err != nil {
		return "", err
	}

	// Remote indexing of a freshly added source has no readiness signal;
	// a fixed settling delay stands in for one.
	c.logger.Infof("waiting %s for transcript processing", c.cfg.SettleDelay)
	if err := c.sleep(ctx, c.cfg.SettleDelay.Duration); err != nil {
		return "", err
	}

	c.logger.Infof("triggering generation for notebook %s", notebookID)
	if _, err := c.rpc.Call(ctx, rpcGenerateInfographic, triggerGenerationPayload(notebookID, sourceID)); err != nil {
		return "", fmt.Errorf("trigger generation: %w", err)
	}

	return c.PollArtifacts(ctx, notebookID)
}

// PollArtifacts repeatedly lists the notebook's artifacts until one
// carries a recognizable URL, sleeping a fixed interval between attempts.
// It is also the entry point for re-checking an existing notebook.
func (c *Client) PollArtifacts(ctx context.Context, notebookID string) (string, error) {
	c.logger.Infof("polling notebook %s for artifacts", notebookID)

	for attempt := 1; attempt <= c.cfg.PollAttempts; attempt++ {
		frame, err := c.rpc.Call(ctx, rpcListArtifacts, listArtifactsPayload(notebookID))
		if err != nil {
			c.logger.Warnf("poll attempt %d failed: %v", attempt, err)
		} else if frame != nil {
			inner, err := frame.DecodeInner()
			if err != nil && !errors.Is(err, batchexec.ErrNoPayload) {
				c.logger.Warnf("poll attempt %d returned unusable payload: %v", attempt, err)
			}
			if err == nil {
				if url := findArtifactURL(inner, c.artifactPatterns); url != "" {
					c.logger.Infof("artifact found: %s", truncate(url, 120))
					return url, nil
				}
			}
		}

		if attempt == c.cfg.PollAttempts {
			break
		}
		c.logger.Infof("poll attempt %d/%d, artifact not ready", attempt, c.cfg.PollAttempts)
		if err := c.sleep(ctx, c.cfg.PollInterval.Duration); err != nil {
			return "", err
		}
	}

	return "", ErrGenerationTimeout
}

// DeleteNotebook removes a notebook on the remote side. The cache entry is
// deliberately left alone; this subsystem never deletes entries.
func (c *Client) DeleteNotebook(ctx context.Context, notebookID string) error {
	c.logger.Infof("deleting notebook %s", notebookID)

	if _, err := c.rpc.Call(ctx, rpcDeleteNotebook, deleteNotebookPayload(notebookID)); err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	return nil
}

// DownloadArtifact fetches an artifact URL through the authenticated
// browser request context, which shares the session's cookies.
func (c *Client) DownloadArtifact(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Infof("downloading artifact %s", truncate(url, 120))

	resp, err := c.fetcher.Get(url, map[string]string{
		"Referer": c.cfg.BaseURL + "/",
	})
	if err != nil {
		return nil, fmt.Errorf("download artifact: %w", err)
	}
	if !resp.OK() {
		c.logger.Errorf("artifact download failed: %d %s", resp.Status, resp.StatusText)
		return nil, &batchexec.TransportError{Status: resp.Status, StatusText: resp.StatusText}
	}

	return resp.Body, nil
}

// LastNotebookID returns the most recently created notebook id, for
// resuming work without re-specifying the identifier.
func (c *Client) LastNotebookID() string {
	return c.lastRun.Get()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
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
