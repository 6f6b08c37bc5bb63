package models

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CurrentConditions struct {
	Temperature  float64 `json:"temperature"`
	FeelsLike    float64 `json:"feels_like"`
	Condition    string  `json:"condition"`
	WindKph      float64 `json:"wind_kph"`
	Humidity     int     `json:"humidity"`
	VisibilityKm float64 `json:"visibility_km"`
	PressureMb   float64 `json:"pressure_mb"`
}

type ForecastDay struct {
	Date         string  `json:"date"`
	Condition    string  `json:"condition"`
	HighTemp     float64 `json:"high_temp"`
	LowTemp      float64 `json:"low_temp"`
	ChanceOfRain int     `json:"chance_of_rain"`
}

// WeatherSnapshot is the unit of display data. It is replaced wholesale on
// every successful fetch, never patched field by field.
type WeatherSnapshot struct {
	Current  CurrentConditions `json:"current"`
	Forecast []ForecastDay     `json:"forecast"`
}

// CityMatch is one candidate from the city-name search endpoint.
type CityMatch struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// Place is the administrative breakdown of a reverse-geocoded coordinate.
type Place struct {
	City      string `json:"city"`
	Subregion string `json:"subregion"`
	Region    string `json:"region"`
}
