package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// shared HTTP plumbing for the classifier and judge adapters. Both talk to
// simple JSON-over-HTTP inference services.

func newScoringHTTPClient(timeout time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.Logger = nil
	client := rc.StandardClient()
	client.Timeout = timeout
	return client
}

func postJSON(ctx context.Context, client *http.Client, url string, apiKey string, reqBody, respBody any) error {
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("scoring service returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// HTTPClassifier calls a pretrained text classifier over HTTP. Requests are
// rate-limited and retried; the caller is responsible for substituting
// neutral defaults on error.
type HTTPClassifier struct {
	Host    string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
}

var _ Classifier = (*HTTPClassifier)(nil)

func NewHTTPClassifier(host, apiKey string, timeout time.Duration, reqPerSec int) *HTTPClassifier {
	return &HTTPClassifier{
		Host:    host,
		APIKey:  apiKey,
		Client:  newScoringHTTPClient(timeout),
		Limiter: rate.NewLimiter(rate.Limit(reqPerSec), 1),
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (Score, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return Score{}, err
	}
	var out Score
	err := postJSON(ctx, c.Client, c.Host+"/v1/classify", c.APIKey,
		map[string]string{"text": text}, &out)
	if err != nil {
		return Score{}, fmt.Errorf("classifier: %w", err)
	}
	return out, nil
}

// HTTPJudge calls an LLM judge service over HTTP. The prompt lives on the
// service side; this adapter only carries text in and scores out.
type HTTPJudge struct {
	Host    string
	APIKey  string
	Model   string
	Client  *http.Client
	Limiter *rate.Limiter
}

var _ Judge = (*HTTPJudge)(nil)

func NewHTTPJudge(host, apiKey, model string, timeout time.Duration, reqPerSec int) *HTTPJudge {
	return &HTTPJudge{
		Host:    host,
		APIKey:  apiKey,
		Model:   model,
		Client:  newScoringHTTPClient(timeout),
		Limiter: rate.NewLimiter(rate.Limit(reqPerSec), 1),
	}
}

func (j *HTTPJudge) Judge(ctx context.Context, text string) (JudgeResult, error) {
	if err := j.Limiter.Wait(ctx); err != nil {
		return JudgeResult{}, err
	}
	var out JudgeResult
	err := postJSON(ctx, j.Client, j.Host+"/v1/judge", j.APIKey,
		map[string]string{"text": text, "model": j.Model}, &out)
	if err != nil {
		return JudgeResult{}, fmt.Errorf("judge: %w", err)
	}
	return out, nil
}
