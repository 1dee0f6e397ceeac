package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/fieldtools/site-report/pkg/handlers/report"
	"github.com/fieldtools/site-report/pkg/server"
	"github.com/fieldtools/site-report/pkg/services/assembler"
	"github.com/fieldtools/site-report/pkg/services/config"
	"github.com/fieldtools/site-report/pkg/services/mail"
	"github.com/fieldtools/site-report/pkg/services/render"
	"github.com/fieldtools/site-report/pkg/services/weather"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	profilesPath string
	smtpProfile  string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the site visit report server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the settings file (optional)")
	rootCmd.Flags().StringVar(&profilesPath, "profiles", "", "Path to the SMTP profiles file (optional)")
	rootCmd.Flags().StringVar(&smtpProfile, "smtp-profile", "", "Named SMTP profile to deliver email with")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	settings, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", settings.Timezone, err)
	}

	weatherSvc := weather.NewOpenWeatherMap(weather.Config{
		APIKey:    settings.Weather.APIKey,
		Latitude:  settings.Weather.Latitude,
		Longitude: settings.Weather.Longitude,
	})
	if settings.Weather.APIKey == "" {
		logger.Warn().Msg("no weather api key configured, temperature will render as N/A")
	}

	asm := assembler.New(assembler.Options{
		Weather:  weatherSvc,
		Location: loc,
	})
	engine := render.NewRenderer(render.Config{})

	mailCfg := mail.Config{
		Host:     settings.SMTP.Host,
		Port:     settings.SMTP.Port,
		Username: settings.SMTP.Username,
		Password: settings.SMTP.Password,
		From:     settings.SMTP.From,
		To:       settings.SMTP.To,
	}
	if profilesPath != "" && smtpProfile != "" {
		registry, err := config.NewRegistry(profilesPath)
		if err != nil {
			return fmt.Errorf("failed to load SMTP profiles: %w", err)
		}
		mailCfg, err = registry.GetSMTP(ctx, smtpProfile)
		if err != nil {
			return fmt.Errorf("failed to resolve SMTP profile: %w", err)
		}
		logger.Info().Str("profile", smtpProfile).Msg("using SMTP delivery profile")
	}

	var sender mail.Sender
	if mailCfg.Host != "" {
		sender, err = mail.NewSMTPSender(mailCfg)
		if err != nil {
			return fmt.Errorf("failed to configure mail delivery: %w", err)
		}
	} else {
		logger.Warn().Msg("no SMTP host configured, email delivery disabled")
	}

	handler := report.NewHandler(asm, engine, sender)

	api := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(settings.ServerHost, settings.ServerPort),
		Dependencies: server.Dependencies{
			Report: handler,
		},
	})

	return api.Start()
}
