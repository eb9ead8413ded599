package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"pothikbondhu/internal/domain/models"
)

// RoutingClient queries an OSRM-compatible driving router.
type RoutingClient struct {
	BaseURL string
	HTTP    *http.Client
	cache   *cache.Cache
}

func NewRoutingClient(baseURL string, timeout time.Duration) *RoutingClient {
	return &RoutingClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		cache:   newCache(),
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route returns the first driving route between from and to.
func (c *RoutingClient) Route(ctx context.Context, from, to models.Point) (models.Route, error) {
	key := coordKey("route", from.Lat, from.Lng, to.Lat, to.Lng)
	if v, ok := c.cache.Get(key); ok {
		return v.(models.Route), nil
	}

	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.BaseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	var body osrmResponse
	if err := getJSON(ctx, c.HTTP, "routing", url, &body); err != nil {
		return models.Route{}, err
	}
	if len(body.Routes) == 0 {
		return models.Route{}, ServiceError{Service: "routing", Err: errors.New("no route found")}
	}

	r := body.Routes[0]
	route := models.Route{
		Points:          make([]models.Point, 0, len(r.Geometry.Coordinates)),
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}
	// GeoJSON order is [lng, lat].
	for _, xy := range r.Geometry.Coordinates {
		if len(xy) < 2 {
			continue
		}
		route.Points = append(route.Points, models.Point{Lat: xy[1], Lng: xy[0]})
	}
	if len(route.Points) == 0 {
		return models.Route{}, ServiceError{Service: "routing", Err: errors.New("empty geometry")}
	}

	c.cache.Set(key, route, cache.DefaultExpiration)
	return route, nil
}
