package mapsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"routeiq/internal/domain"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

var (
	// ErrNoRoute means the provider answered but found no route
	ErrNoRoute = errors.New("no route found")
	// ErrNotFound means an address could not be geocoded
	ErrNotFound = errors.New("address not found")
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type apiValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

type apiLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type apiStep struct {
	HTMLInstructions string      `json:"html_instructions"`
	Distance         apiValue    `json:"distance"`
	Duration         apiValue    `json:"duration"`
	TravelMode       string      `json:"travel_mode"`
	StartLocation    apiLocation `json:"start_location"`
	EndLocation      apiLocation `json:"end_location"`
}

type apiLeg struct {
	Distance apiValue  `json:"distance"`
	Duration apiValue  `json:"duration"`
	Steps    []apiStep `json:"steps"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Routes       []struct {
		Legs []apiLeg `json:"legs"`
	} `json:"routes"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location apiLocation `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// GetLeg requests directions for one leg. Transit legs prefer buses with
// fewer transfers. A provider answer without a route yields ErrNoRoute.
func (c *Client) GetLeg(ctx context.Context, origin, destination domain.Place, mode domain.TravelMode) (*domain.Leg, error) {
	params := url.Values{}
	params.Set("origin", origin.Query())
	params.Set("destination", destination.Query())
	params.Set("mode", strings.ToLower(string(mode)))
	if mode == domain.TravelModeTransit {
		params.Set("transit_mode", "bus")
		params.Set("transit_routing_preference", "fewer_transfers")
	}
	params.Set("key", c.apiKey)

	body, err := c.get(ctx, "/directions/json", params)
	if err != nil {
		return nil, err
	}

	var resp directionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding directions: %w", err)
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return nil, ErrNoRoute
	default:
		return nil, fmt.Errorf("directions API error: %s %s", resp.Status, resp.ErrorMessage)
	}

	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return nil, ErrNoRoute
	}

	return toLeg(resp.Routes[0].Legs[0], mode, body), nil
}

// Geocode resolves a free-form address to coordinates
func (c *Client) Geocode(ctx context.Context, address string) (domain.LatLng, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	body, err := c.get(ctx, "/geocode/json", params)
	if err != nil {
		return domain.LatLng{}, err
	}

	var resp geocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.LatLng{}, fmt.Errorf("decoding geocode: %w", err)
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.LatLng{}, ErrNotFound
	default:
		return domain.LatLng{}, fmt.Errorf("geocode API error: %s %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return domain.LatLng{}, ErrNotFound
	}

	loc := resp.Results[0].Geometry.Location
	return domain.LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return raw, nil
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

func toLeg(al apiLeg, mode domain.TravelMode, raw json.RawMessage) *domain.Leg {
	steps := make([]domain.Step, 0, len(al.Steps))
	for _, s := range al.Steps {
		stepMode, ok := domain.ParseTravelMode(s.TravelMode)
		if !ok {
			stepMode = mode
		}
		steps = append(steps, domain.Step{
			Instruction:     plainText(s.HTMLInstructions),
			Distance:        s.Distance.Text,
			DurationMinutes: Minutes(s.Duration.Value),
			Mode:            stepMode,
			Start:           domain.LatLng{Lat: s.StartLocation.Lat, Lng: s.StartLocation.Lng},
			End:             domain.LatLng{Lat: s.EndLocation.Lat, Lng: s.EndLocation.Lng},
		})
	}

	return &domain.Leg{
		DurationMinutes: Minutes(al.Duration.Value),
		Distance:        al.Distance.Text,
		DistanceKm:      al.Distance.Value / 1000,
		Steps:           steps,
		Raw:             raw,
	}
}

func plainText(html string) string {
	return strings.Join(strings.Fields(htmlTag.ReplaceAllString(html, " ")), " ")
}

// Minutes rounds a duration in seconds up to whole minutes
func Minutes(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Ceil(seconds / 60))
}
