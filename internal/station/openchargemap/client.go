// Package openchargemap provides a client for the Open Charge Map POI API.
package openchargemap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chargeroute/chargeroute/internal/provider/resilience"
	"github.com/chargeroute/chargeroute/internal/station"
)

const (
	// ProviderName identifies this station provider.
	ProviderName = "openchargemap"

	// DefaultBaseURL is the Open Charge Map API base URL.
	DefaultBaseURL = "https://api.openchargemap.io"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxResults bounds the POI count per bounding-box query.
	DefaultMaxResults = 500
)

// fastBrands are charging networks treated as recognized fast-charging
// brands for scoring. Matched case-insensitively against the operator title.
var fastBrands = []string{
	"ionity",
	"tesla",
	"fastned",
	"electrify",
	"shell recharge",
	"evro",
}

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Open Charge Map client.
type ClientConfig struct {
	// APIKey is the OCM API key (required for production quotas).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OCM API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// MaxResults bounds the POI count per query (optional, defaults to 500).
	MaxResults int

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open Charge Map API client.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Open Charge Map client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		maxResults: maxResults,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FindStations retrieves charging stations within a bounding box.
func (c *Client) FindStations(ctx context.Context, box station.GeoBox) ([]station.Station, error) {
	params := url.Values{}
	params.Set("output", "json")
	params.Set("compact", "true")
	params.Set("verbose", "false")
	params.Set("maxresults", strconv.Itoa(c.maxResults))
	// OCM bounding box is (lat1,lon1),(lat2,lon2)
	params.Set("boundingbox", fmt.Sprintf("(%f,%f),(%f,%f)",
		box.MinLat, box.MinLon, box.MaxLat, box.MaxLon))

	reqURL := fmt.Sprintf("%s/v3/poi?%s", c.baseURL, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	c.logger.Debug().
		Float64("min_lat", box.MinLat).
		Float64("min_lon", box.MinLon).
		Float64("max_lat", box.MaxLat).
		Float64("max_lon", box.MaxLon).
		Msg("requesting stations from OCM")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &station.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach station provider",
			Err:      station.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var pois []ocmPOI
	if err := json.Unmarshal(respBody, &pois); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	stations := c.toStations(pois)

	c.logger.Debug().
		Int("poi_count", len(pois)).
		Int("station_count", len(stations)).
		Msg("received stations from OCM")

	return stations, nil
}

// handleErrorResponse maps OCM error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var ocmErr ocmErrorResponse
	_ = json.Unmarshal(body, &ocmErr)

	message := ocmErr.Description
	if message == "" {
		message = fmt.Sprintf("station provider returned status %d", statusCode)
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &station.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      station.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized:
		return &station.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      station.ErrProviderUnavailable,
		}
	case statusCode >= 500:
		return &station.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "station provider is temporarily unavailable",
			Err:      station.ErrProviderUnavailable,
		}
	default:
		return &station.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  message,
			Err:      station.ErrProviderUnavailable,
		}
	}
}

// toStations converts OCM POIs to domain stations. POIs marked
// non-operational or without a usable position are dropped.
func (c *Client) toStations(pois []ocmPOI) []station.Station {
	now := time.Now()
	stations := make([]station.Station, 0, len(pois))

	for i := range pois {
		poi := &pois[i]

		if poi.StatusType != nil && poi.StatusType.IsOperational != nil && !*poi.StatusType.IsOperational {
			continue
		}
		if poi.AddressInfo.Latitude == 0 && poi.AddressInfo.Longitude == 0 {
			continue
		}

		st := station.Station{
			ID:   fmt.Sprintf("ocm_%d", poi.ID),
			Name: poi.AddressInfo.Title,
			Position: station.Point{
				Lat: poi.AddressInfo.Latitude,
				Lon: poi.AddressInfo.Longitude,
			},
			UpdatedAt: now,
		}

		if poi.OperatorInfo != nil {
			st.Operator = poi.OperatorInfo.Title
			st.FastBrand = isFastBrand(poi.OperatorInfo.Title)
		}

		// Rated power is the fastest connector on site.
		totalConnectors := 0
		for _, conn := range poi.Connections {
			if conn.PowerKW != nil && *conn.PowerKW > st.PowerKW {
				st.PowerKW = *conn.PowerKW
			}
			if conn.Quantity != nil {
				totalConnectors += *conn.Quantity
			} else {
				totalConnectors++
			}
		}
		if poi.NumberOfPoints != nil && *poi.NumberOfPoints > 0 {
			totalConnectors = *poi.NumberOfPoints
		}
		if totalConnectors > 0 {
			st.TotalChargers = &totalConnectors
		}

		if price, ok := parseUsageCost(poi.UsageCost); ok {
			st.PricePerKWh = &price
		}

		stations = append(stations, st)
	}

	return stations
}

// usageCostPattern extracts the first per-kWh amount from OCM's free-form
// cost strings, e.g. "₱33.00/kWh" or "PHP 35 per kWh; idle fee applies".
var usageCostPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:/|per\s+)kwh`)

// parseUsageCost extracts a per-kWh price from the free-form cost field.
// Strings without a recognizable per-kWh amount resolve to no price, so
// pricing falls back to the power-tier table.
func parseUsageCost(cost string) (float64, bool) {
	if cost == "" {
		return 0, false
	}

	match := usageCostPattern.FindStringSubmatch(strings.ToLower(cost))
	if match == nil {
		return 0, false
	}

	price, err := strconv.ParseFloat(match[1], 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

// isFastBrand reports whether an operator title matches a recognized
// fast-charging network.
func isFastBrand(operator string) bool {
	lower := strings.ToLower(operator)
	for _, brand := range fastBrands {
		if strings.Contains(lower, brand) {
			return true
		}
	}
	return false
}

// Ensure Client implements station.Provider interface.
var _ station.Provider = (*Client)(nil)
