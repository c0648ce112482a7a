package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/types"
	"github.com/okian/savra/pkg/logger"
)

const (
	maxSubmitAttempts = 5
	retryBackoff      = 200 * time.Millisecond
	maxErrorBody      = 512
)

// HTTPClient wraps http.Client with the API base path.
type HTTPClient struct {
	client *http.Client
	base   string
}

func newHTTPClient(cfg *Config) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: cfg.Timeout},
		base:   cfg.BaseURL,
	}
}

// statusError carries a non-2xx response.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

func asStatus(err error, target **statusError) bool {
	return errors.As(err, target)
}

// do sends a request and decodes a 2xx JSON body into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// submitRecords posts records in batches from cfg.Workers goroutines.
// A batch refused with 429 is retried with linear backoff.
func submitRecords(ctx context.Context, cfg *Config, client *HTTPClient, records []model.ActivityRecord, stats *Stats) error {
	batches := chunk(records, cfg.BatchSize)
	logger.Get().Info(ctx, "submitting records",
		logger.Int("records", len(records)),
		logger.Int("batches", len(batches)),
		logger.Int("workers", cfg.Workers))

	var sent, retried, failed, queued int64
	work := make(chan []model.ActivityRecord, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range work {
				resp, retries, err := submitBatch(ctx, cfg, client, batch)
				atomic.AddInt64(&sent, 1)
				atomic.AddInt64(&retried, int64(retries))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					logger.Get().Warn(ctx, "batch failed", logger.Int("records", len(batch)), logger.Error(err))
					continue
				}
				atomic.AddInt64(&queued, int64(resp.Queued))
				if cfg.Verbose {
					logger.Get().Debug(ctx, "batch queued", logger.String("batch", resp.BatchID), logger.Int("records", resp.Queued))
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, b := range batches {
			select {
			case <-ctx.Done():
				return
			case work <- b:
			}
		}
	}()
	wg.Wait()

	stats.BatchesSent = int(sent)
	stats.BatchesRetried = int(retried)
	stats.BatchesFailed = int(failed)
	stats.RecordsQueued = int(queued)

	if failed > 0 {
		return fmt.Errorf("%d of %d batches failed", failed, len(batches))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission cancelled: %w", err)
	}
	return nil
}

func submitBatch(ctx context.Context, cfg *Config, client *HTTPClient, batch []model.ActivityRecord) (types.IngestResponse, int, error) {
	var resp types.IngestResponse
	var err error
	for attempt := 0; attempt < maxSubmitAttempts; attempt++ {
		err = client.do(ctx, http.MethodPost, cfg.Prefix+"/records", types.IngestRequest{Records: batch}, &resp)
		var se *statusError
		if err == nil || !asStatus(err, &se) || se.Code != http.StatusTooManyRequests {
			return resp, attempt, err
		}
		select {
		case <-ctx.Done():
			return resp, attempt, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * retryBackoff):
		}
	}
	return resp, maxSubmitAttempts - 1, err
}

func chunk(records []model.ActivityRecord, size int) [][]model.ActivityRecord {
	if size < 1 {
		size = len(records)
	}
	var out [][]model.ActivityRecord
	for start := 0; start < len(records); start += size {
		out = append(out, records[start:min(start+size, len(records))])
	}
	return out
}
