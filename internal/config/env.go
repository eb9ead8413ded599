package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Env struct {
	AppAddr  string `envconfig:"APP_ADDR" default:":8080"`
	GinMode  string `envconfig:"GIN_MODE"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBUser     string `envconfig:"DB_USER" default:"root"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1:3306"`
	DBName     string `envconfig:"DB_NAME" default:"pothik_bondhu"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me-in-production"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	RoutingBaseURL  string        `envconfig:"ROUTING_BASE_URL" default:"https://routing.openstreetmap.de/routed-car"`
	WeatherBaseURL  string        `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com"`
	ExternalTimeout time.Duration `envconfig:"EXTERNAL_TIMEOUT" default:"4s"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"bookings"`
}

// LoadEnv reads an optional .env file and then the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("load env: %w", err)
	}
	env.AppAddr = strings.TrimSpace(env.AppAddr)
	env.GinMode = strings.TrimSpace(env.GinMode)

	origins := env.CORSAllowedOrigins[:0]
	for _, o := range env.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	env.CORSAllowedOrigins = origins
	return env, nil
}

// DSN builds the go-sql-driver/mysql connection string.
func (e Env) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s&multiStatements=true",
		e.DBUser,
		e.DBPassword,
		e.DBHost,
		e.DBName,
	)
}
