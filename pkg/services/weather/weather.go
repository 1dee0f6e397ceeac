package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fieldtools/site-report/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Service provides the current ambient temperature for the configured site.
// Any lookup failure collapses to an invalid Temperature; callers never see
// an error, so a weather outage can only degrade the report, not block it.
type Service interface {
	CurrentTemperature(ctx context.Context) domain.Temperature
}

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/onecall"

type Config struct {
	APIKey    string
	Latitude  float64
	Longitude float64
	// BaseURL overrides the OpenWeatherMap endpoint, for tests.
	BaseURL string
	Timeout time.Duration
}

type openWeatherMap struct {
	cfg    Config
	client *http.Client
}

// NewOpenWeatherMap returns a Service backed by the OpenWeatherMap One Call
// API, queried in imperial units.
func NewOpenWeatherMap(cfg Config) Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &openWeatherMap{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (o *openWeatherMap) CurrentTemperature(ctx context.Context) domain.Temperature {
	logger := zerolog.Ctx(ctx)

	if o.cfg.APIKey == "" {
		return domain.Temperature{}
	}

	temp, err := o.fetch(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("weather lookup failed")
		return domain.Temperature{}
	}
	return domain.Temperature{DegreesF: temp, Valid: true}
}

func (o *openWeatherMap) fetch(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", o.cfg.Latitude))
	q.Set("lon", fmt.Sprintf("%.4f", o.cfg.Longitude))
	q.Set("units", "imperial")
	q.Set("appid", o.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("query weather api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("weather api returned %s", resp.Status)
	}

	var payload struct {
		Current struct {
			Temp float64 `json:"temp"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode weather response: %w", err)
	}
	return payload.Current.Temp, nil
}
