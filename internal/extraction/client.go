// Package extraction turns sales transcripts into raw line items by asking
// an OpenAI-compatible chat completion endpoint.
package extraction

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"resty.dev/v3"

	"waras/internal/config"
	"waras/internal/sales"
)

// SystemInstruction is sent with every transcript.
const SystemInstruction = `Extract the sales from the transcript of a shop conversation. ` +
	`Only include items that were explicitly sold with a clearly stated quantity and unit price; ` +
	`leave out any item whose information is incomplete. ` +
	`Reply with a JSON array only, for example: [{"barang": "Aqua", "jumlah": 2, "harga": 5000}], ` +
	`where "barang" is the item name, "jumlah" the quantity and "harga" the price per unit.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls the extraction endpoint. Each Extract is a single attempt.
type Client struct {
	http     *resty.Client
	endpoint string
	model    string
	hasKey   bool
	logger   *zap.Logger
}

// NewClient creates a Client from cfg. The API key is captured here and
// never changes for the life of the Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetTimeout(cfg.ExtractionTimeout).
		SetRetryCount(0).
		SetAuthToken(cfg.ExtractionAPIKey).
		SetLogger(logger.Sugar())

	return &Client{
		http:     httpClient,
		endpoint: cfg.ExtractionEndpoint,
		model:    cfg.ExtractionModel,
		hasKey:   cfg.ExtractionEnabled(),
		logger:   logger,
	}
}

// Extract sends transcript to the endpoint and returns the items of the
// reply unvalidated.
func (c *Client) Extract(ctx context.Context, transcript string) ([]sales.RawItem, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}
	if !c.hasKey {
		return nil, ErrMissingCredential
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemInstruction},
			{Role: "user", Content: transcript},
		},
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.endpoint)
	if err != nil {
		return nil, transportError(err.Error(), err)
	}

	var reply chatResponse
	decodeErr := json.Unmarshal(res.Bytes(), &reply)

	if res.IsError() {
		msg := res.Status()
		if decodeErr == nil && reply.Error != nil && reply.Error.Message != "" {
			msg = reply.Error.Message
		}
		c.logger.Warn("extraction endpoint returned an error", zap.Int("status", res.StatusCode()), zap.String("message", msg))
		return nil, transportError(msg, nil)
	}
	if decodeErr != nil {
		return nil, malformedError("response is not a completion object", decodeErr)
	}
	if reply.Error != nil {
		return nil, transportError(reply.Error.Message, nil)
	}
	if len(reply.Choices) == 0 {
		return nil, malformedError("response has no choices", nil)
	}

	parsed := ParseReply(reply.Choices[0].Message.Content)
	if !parsed.Ok() {
		c.logger.Warn("extraction reply not parsable", zap.Error(parsed.Err))
		return nil, parsed.Err
	}

	c.logger.Debug("extraction reply parsed",
		zap.String("envelope", string(parsed.Envelope)),
		zap.Int("items", len(parsed.Items)),
		zap.Duration("latency", res.Duration()),
	)
	return parsed.Items, nil
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.http.Close()
}
