package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/resilience"
)

// serviceClient is the shared plumbing for HTTP inference services: rate
// limiting, retry on transient failures, and a circuit breaker per service.
type serviceClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

func newServiceClient(name, baseURL, apiKey string, rps float64) *serviceClient {
	if rps <= 0 {
		rps = 1
	}
	return &serviceClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Service: name}),
		retry:   resilience.DefaultRetryConfig(),
	}
}

// regionRequest is the wire payload every inference service accepts: the
// page image plus the normalized bbox to crop.
type regionRequest struct {
	ImageB64   string           `json:"image_b64"`
	PageIndex  int              `json:"page_index"`
	BBox       model.BBox       `json:"bbox"`
	RegionType model.RegionType `json:"region_type"`
}

func buildRegionRequest(region model.Region) (*regionRequest, error) {
	data, err := os.ReadFile(region.DocPath)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: read page image %s", region.DocPath)
	}
	return &regionRequest{
		ImageB64:   base64.StdEncoding.EncodeToString(data),
		PageIndex:  region.PageIndex,
		BBox:       region.BBox,
		RegionType: region.RegionType,
	}, nil
}

// postJSON sends payload to path and decodes the response into out,
// retrying transient failures inside the circuit breaker.
func (s *serviceClient) postJSON(ctx context.Context, path string, payload any, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "provider: rate limit wait")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "provider: marshal request")
	}

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		respBody, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) ([]byte, error) {
			return s.doPost(ctx, path, body)
		})
		if err != nil {
			return err
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return eris.Wrap(err, "provider: unmarshal response")
		}
		return nil
	})
}

func (s *serviceClient) doPost(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "provider: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "provider: http call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "provider: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("provider: service returned %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return respBody, nil
}
