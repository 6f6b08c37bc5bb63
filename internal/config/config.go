package config

import "github.com/kelseyhightower/envconfig"

type Server struct {
	Address     string `envconfig:"SERVER_ADDRESS" default:":8080"`
	ReadTimeout int    `envconfig:"SERVER_TIMEOUT" default:"10"`
}

type DB struct {
	Dialect        string `envconfig:"DB_DIALECT" default:"sqlite3"`
	Source         string `envconfig:"DB_SOURCE" default:"weather-news.db"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"./migrations"`
}

type Redis struct {
	Host            string `envconfig:"REDIS_HOST" default:"localhost"`
	Port            string `envconfig:"REDIS_PORT" default:"6379"`
	Db              int    `envconfig:"REDIS_DB" default:"0"`
	LiveTimeMinutes int    `envconfig:"REDIS_LIVE_TIME" default:"1440"`
}

type Breaker struct {
	TimeInterval int    `envconfig:"BREAKER_INTERVAL" default:"30"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT" default:"10"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

type WeatherAPI struct {
	Key          string `envconfig:"WEATHER_API_KEY" required:"true"`
	BaseURL      string `envconfig:"WEATHER_API_URL" default:"https://api.weatherapi.com/v1"`
	ForecastDays int    `envconfig:"WEATHER_FORECAST_DAYS" default:"6"`
}

type News struct {
	Key      string `envconfig:"NEWS_API_KEY" required:"true"`
	BaseURL  string `envconfig:"NEWS_API_URL" default:"https://newsdata.io/api/1/news"`
	Language string `envconfig:"NEWS_LANGUAGE" default:"en"`
}

type Geocode struct {
	BaseURL        string `envconfig:"GEOCODE_URL" default:"https://nominatim.openstreetmap.org"`
	TimeoutSeconds int    `envconfig:"GEOCODE_TIMEOUT" default:"5"`
}

// Location mirrors the device sensor contract: a consent gate, a bounded
// acquisition timeout and two cached-fix staleness thresholds (initial load
// vs manual refresh).
type Location struct {
	Consent           bool   `envconfig:"LOCATION_CONSENT" default:"true"`
	SensorURL         string `envconfig:"LOCATION_SENSOR_URL" default:"http://ip-api.com"`
	TimeoutSeconds    int    `envconfig:"LOCATION_TIMEOUT" default:"10"`
	InitialMaxAgeSecs int    `envconfig:"LOCATION_INITIAL_MAX_AGE" default:"60"`
	RefreshMaxAgeSecs int    `envconfig:"LOCATION_REFRESH_MAX_AGE" default:"30"`
}

type Auth struct {
	Key         string `envconfig:"AUTH_API_KEY" required:"true"`
	BaseURL     string `envconfig:"AUTH_API_URL" default:"https://identitytoolkit.googleapis.com/v1"`
	TokenURL    string `envconfig:"AUTH_TOKEN_URL" default:"https://securetoken.googleapis.com/v1"`
	RefreshSpec string `envconfig:"AUTH_REFRESH_SPEC" default:"@every 30m"`
}

type Search struct {
	MinChars   int `envconfig:"SEARCH_MIN_CHARS" default:"2"`
	DebounceMs int `envconfig:"SEARCH_DEBOUNCE_MS" default:"500"`
}

type Config struct {
	Server   Server
	DB       DB
	Redis    Redis
	Breaker  Breaker
	Weather  WeatherAPI
	News     News
	Geocode  Geocode
	Location Location
	Auth     Auth
	Search   Search

	LogsPath string `envconfig:"LOGS_PATH" default:"./log/weather-news-api.log"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
