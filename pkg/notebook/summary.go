package notebook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/notebooklm/pkg/stream"
)

// defaultSummaryPrompt is sent when the caller does not supply one.
const defaultSummaryPrompt = "give me summary of the video"

// GenerateSummary runs the full workflow for videoURL and returns the
// generated text summary. An empty string with nil error means generation
// completed but produced no usable text.
func (c *Client) GenerateSummary(ctx context.Context, videoURL string) (string, error) {
	notebookID, sourceID, err := c.PrepareNotebook(ctx, videoURL)
	if err != nil {
		return "", err
	}

	// Indexing a new source takes longer than artifact generation setup;
	// the streamed endpoint answers from nothing if queried too early.
	c.logger.Infof("waiting %s for source indexing", c.cfg.SummaryIndexDelay)
	if err := c.sleep(ctx, c.cfg.SummaryIndexDelay.Duration); err != nil {
		return "", err
	}

	return c.Summarize(ctx, notebookID, sourceID, defaultSummaryPrompt)
}

// Summarize requests a streamed free-form generation against an existing
// notebook and source, and decodes the final text from the stream.
func (c *Client) Summarize(ctx context.Context, notebookID, sourceID, prompt string) (string, error) {
	if prompt == "" {
		prompt = defaultSummaryPrompt
	}

	c.logger.Infof("generating summary for notebook %s", notebookID)

	inner, err := json.Marshal(summaryRequest(notebookID, sourceID, prompt))
	if err != nil {
		return "", fmt.Errorf("failed to encode summary request: %w", err)
	}

	// The streamed endpoint takes the inner request JSON-encoded into a
	// string, wrapped positionally rather than in a batch envelope.
	fReq := []interface{}{nil, string(inner)}

	raw, err := c.rpc.CallStreamed(ctx, c.cfg.StreamEndpoint(), fReq, c.cfg.StreamTimeout.Duration)
	if err != nil {
		return "", fmt.Errorf("summary generation: %w", err)
	}

	text := stream.Decode(raw)
	if text == "" {
		c.logger.Warnf("summary generation produced no usable text")
	}
	return text, nil
}
