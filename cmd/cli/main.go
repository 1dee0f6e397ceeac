package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fieldtools/site-report/pkg/runtime/terminal"
	"github.com/fieldtools/site-report/pkg/services/assembler"
	"github.com/fieldtools/site-report/pkg/services/config"
	"github.com/fieldtools/site-report/pkg/services/render"
	"github.com/fieldtools/site-report/pkg/services/weather"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	settings, err := config.Load(os.Getenv("SITEREPORT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		loc = time.UTC
	}

	cli := terminal.NewCLI(terminal.Options{
		Assembler: assembler.New(assembler.Options{
			Weather: weather.NewOpenWeatherMap(weather.Config{
				APIKey:    settings.Weather.APIKey,
				Latitude:  settings.Weather.Latitude,
				Longitude: settings.Weather.Longitude,
			}),
			Location: loc,
		}),
		Engine: render.NewRenderer(render.Config{}),
		Logger: logger,
		Output: os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
