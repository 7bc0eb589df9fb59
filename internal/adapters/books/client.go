// Package books is the HTTP adapter for the external accounting provider's
// report API. The provider is the system of record; this service only mirrors it.
package books

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finlens/finlens_backend/internal/apperrors"
	"github.com/finlens/finlens_backend/internal/core/domain"
)

// Client fetches report documents from the accounting provider.
type Client interface {
	// ProfitAndLoss retrieves the P&L report tree for an inclusive date range.
	ProfitAndLoss(ctx context.Context, accessToken, realmID string, start, end time.Time) (*domain.Report, error)
}

// HTTPClient calls the provider's v3 report endpoints.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a provider report client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ Client = (*HTTPClient)(nil)

// ProfitAndLoss retrieves the P&L report tree for an inclusive date range.
func (c *HTTPClient) ProfitAndLoss(ctx context.Context, accessToken, realmID string, start, end time.Time) (*domain.Report, error) {
	endpoint := fmt.Sprintf("%s/v3/company/%s/reports/ProfitAndLoss", c.baseURL, url.PathEscape(realmID))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	query := request.URL.Query()
	query.Set("start_date", start.Format("2006-01-02"))
	query.Set("end_date", end.Format("2006-01-02"))
	query.Set("accounting_method", "Accrual")
	request.URL.RawQuery = query.Encode()

	request.Header.Set("Authorization", "Bearer "+accessToken)
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamTransient, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading report response: %v", apperrors.ErrUpstreamTransient, err)
	}

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		// fall through to decoding
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		// Callers only reach here with a freshly ensured token, so a rejection
		// is an upstream anomaly worth retrying, not a local failure.
		return nil, fmt.Errorf("%w: provider rejected access token (status %d)",
			apperrors.ErrUpstreamTransient, response.StatusCode)
	default:
		return nil, fmt.Errorf("%w: provider report API returned %d: %s",
			apperrors.ErrUpstreamTransient, response.StatusCode, strings.TrimSpace(string(body)))
	}

	var report domain.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report document: %w", err)
	}

	return &report, nil
}
