package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/jitter"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// statusError — ответ сервиса с не-2xx статусом.
// 4xx считается постоянной ошибкой и не повторяется.
type statusError struct {
	Status int
	Body   string
}

func (s *statusError) Error() string {
	return fmt.Sprintf("extraction service returned status=%d body=%s", s.Status, s.Body)
}

func (s *statusError) permanent() bool {
	return s.Status >= 400 && s.Status < 500
}

// serviceClient — общий JSON/HTTP-клиент extraction-сервисов с retry-логикой
// и экспоненциальной задержкой между попытками.
type serviceClient struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	logger     logger.Logger
}

func newServiceClient(baseURL string, maxRetries int, logger logger.Logger) serviceClient {
	return serviceClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// postJSON отправляет запрос с повторами. Дедлайн запроса контролирует вызывающий
// через ctx, поэтому у http.Client собственного таймаута нет.
func (c *serviceClient) postJSON(ctx context.Context, path string, req any, res any) error {
	const (
		op         = "serviceClient.postJSON"
		baseJitter = 500 * time.Millisecond
		maxJitter  = 10 * time.Second
	)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		lastErr = c.doPost(ctx, path, req, res)
		if lastErr == nil {
			return nil
		}

		var se *statusError
		if errors.As(lastErr, &se) && se.permanent() {
			return e.Wrap(op, lastErr)
		}

		if attempt == c.maxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		c.logger.Warnf("request to %s%s failed, retrying in %v (attempt %d): %v", c.baseURL, path, sleepTime, attempt+1, lastErr)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return e.Wrap(op, c.ctxError(ctx))
		}
	}

	return e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", c.maxRetries, lastErr))
}

func (c *serviceClient) doPost(ctx context.Context, path string, req any, res any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return c.ctxError(ctx)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{Status: resp.StatusCode, Body: string(snippet)}
	}

	return json.NewDecoder(resp.Body).Decode(res)
}

// ctxError переводит истёкший дедлайн во внутреннюю ошибку таймаута извлечения.
func (c *serviceClient) ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return e.ErrExtractionTimeout
	}
	return ctx.Err()
}
