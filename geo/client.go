package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client looks a postal code up in a ViaCEP-style service and geocodes the
// resulting address with a Nominatim-style search API.
type Client struct {
	http       *http.Client
	postalURL  string
	geocodeURL string
	userAgent  string
}

func NewClient(postalURL, geocodeURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		postalURL:  strings.TrimRight(postalURL, "/"),
		geocodeURL: geocodeURL,
		userAgent:  userAgent,
	}
}

// PostalAddress is the subset of the postal lookup response we use.
type PostalAddress struct {
	PostalCode   string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Missing      bool   `json:"erro"`
}

func (c *Client) Locate(ctx context.Context, postalCode string) (Coordinates, error) {
	cep, err := NormalizePostalCode(postalCode)
	if err != nil {
		return Coordinates{}, err
	}

	addr, err := c.LookupPostalCode(ctx, cep)
	if err != nil {
		return Coordinates{}, err
	}

	if addr.Street != "" {
		q := fmt.Sprintf("%s, %s, %s, Brasil", addr.Street, addr.City, addr.State)
		if coords, err := c.search(ctx, url.Values{"q": {q}}); err == nil {
			return coords, nil
		}
	}
	// Generic CEPs (whole city) have no street; fall back to a structured query.
	return c.search(ctx, url.Values{
		"postalcode": {cep[:5] + "-" + cep[5:]},
		"city":       {addr.City},
		"state":      {addr.State},
		"country":    {"Brasil"},
	})
}

// LookupPostalCode resolves a normalized CEP into an address.
func (c *Client) LookupPostalCode(ctx context.Context, cep string) (PostalAddress, error) {
	var addr PostalAddress
	endpoint := fmt.Sprintf("%s/%s/json/", c.postalURL, cep)
	if err := c.getJSON(ctx, endpoint, &addr); err != nil {
		return PostalAddress{}, fmt.Errorf("geo: postal lookup %s: %w", cep, err)
	}
	if addr.Missing {
		return PostalAddress{}, fmt.Errorf("geo: postal lookup %s: %w", cep, ErrNotFound)
	}
	return addr, nil
}

func (c *Client) search(ctx context.Context, params url.Values) (Coordinates, error) {
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "br")

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := c.getJSON(ctx, c.geocodeURL+"?"+params.Encode(), &results); err != nil {
		return Coordinates{}, fmt.Errorf("geo: geocode: %w", err)
	}
	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("geo: geocode: %w", ErrNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geo: geocode: bad latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geo: geocode: bad longitude %q", results[0].Lon)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
