package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"pothikbondhu/internal/domain/models"
)

// WeatherClient reads current conditions from an Open-Meteo compatible API.
type WeatherClient struct {
	BaseURL string
	HTTP    *http.Client
	cache   *cache.Cache
}

func NewWeatherClient(baseURL string, timeout time.Duration) *WeatherClient {
	return &WeatherClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		cache:   newCache(),
	}
}

type openMeteoResponse struct {
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (c *WeatherClient) Current(ctx context.Context, at models.Point) (models.Weather, error) {
	key := coordKey("weather", at.Lat, at.Lng)
	if v, ok := c.cache.Get(key); ok {
		return v.(models.Weather), nil
	}

	url := fmt.Sprintf("%s/v1/forecast?latitude=%f&longitude=%f&current_weather=true", c.BaseURL, at.Lat, at.Lng)
	var body openMeteoResponse
	if err := getJSON(ctx, c.HTTP, "weather", url, &body); err != nil {
		return models.Weather{}, err
	}
	if body.CurrentWeather == nil {
		return models.Weather{}, ServiceError{Service: "weather", Err: fmt.Errorf("missing current_weather")}
	}

	w := models.Weather{
		Code:        body.CurrentWeather.WeatherCode,
		Description: DescribeWeather(body.CurrentWeather.WeatherCode),
		Temperature: body.CurrentWeather.Temperature,
		WindSpeed:   body.CurrentWeather.WindSpeed,
	}
	c.cache.Set(key, w, cache.DefaultExpiration)
	return w, nil
}

// DescribeWeather maps a WMO weather code to a short label.
func DescribeWeather(code int) string {
	switch {
	case code == 0:
		return "Clear Sky"
	case code >= 1 && code <= 3:
		return "Partly Cloudy"
	case code >= 45 && code <= 48:
		return "Foggy"
	case code >= 51 && code <= 67:
		return "Rainy"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain Showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
