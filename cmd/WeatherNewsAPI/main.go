package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "modernc.org/sqlite"

	"github.com/Yassin-Kassem/weather-news-api/internal/app"
	"github.com/Yassin-Kassem/weather-news-api/internal/config"
	"github.com/Yassin-Kassem/weather-news-api/internal/services/metrics"
	"github.com/Yassin-Kassem/weather-news-api/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Panicf("failed to load configuration: %v", err)
	}

	// LogsPath is reserved for the outbound HTTP log; the application logger
	// stays on the console.
	l, err := logger.New("", "WeatherNewsAPI")
	if err != nil {
		log.Panicf("failed to create logger: %v", err)
	}

	met := metrics.NewMetrics("weather_news_api")

	application := app.New(*cfg, l, met)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.Panicf("Application failed to run: %v", err)
	}
}
