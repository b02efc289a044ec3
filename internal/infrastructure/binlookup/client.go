package binlookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "card-gateway/internal/domain/binlookup"
	"card-gateway/internal/infrastructure/config"
)

// HTTPClient BINルックアップサービスのHTTPクライアント
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	tracer     trace.Tracer
}

// NewHTTPClient 新しいHTTPClientを作成
func NewHTTPClient(cfg *config.BinLookupConfig) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		tracer:     otel.Tracer("bin-lookup-client"),
	}
}

// Lookup BINから発行元情報を取得する
func (c *HTTPClient) Lookup(ctx context.Context, bin string, country string) (*domain.BinInfo, error) {
	ctx, span := c.tracer.Start(ctx, "BinLookupClient.Lookup")
	defer span.End()

	span.SetAttributes(
		attribute.String("binlookup.bin", bin),
		attribute.String("binlookup.country", country),
	)

	endpoint := c.baseURL + "/v1/bins/" + url.PathEscape(bin)
	if country != "" {
		endpoint += "?country=" + url.QueryEscape(country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("bin lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		span.SetStatus(otelcodes.Ok, "bin not found")
		return nil, domain.ErrBinNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("bin lookup service returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	var info domain.BinInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to parse bin lookup response: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "bin resolved")
	return &info, nil
}
