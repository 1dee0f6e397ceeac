package config

import (
	"context"
	"fmt"

	"github.com/fieldtools/site-report/pkg/services/mail"
	"gopkg.in/ini.v1"
)

// Registry exposes named SMTP delivery profiles from an ini file, so one
// deployment can switch outbound accounts without re-deploying.
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetSMTP(ctx context.Context, profile string) (mail.Config, error)
}

type profileRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &profileRegistry{cfg: cfg}, nil
}

func (pr *profileRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range pr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (pr *profileRegistry) GetSMTP(_ context.Context, profile string) (mail.Config, error) {
	section, err := pr.cfg.GetSection(profile)
	if err != nil {
		return mail.Config{}, fmt.Errorf("profile %s not found", profile)
	}

	port, err := section.Key("port").Int()
	if err != nil {
		port = 587
	}

	return mail.Config{
		Host:     section.Key("host").String(),
		Port:     port,
		Username: section.Key("username").String(),
		Password: section.Key("password").String(),
		From:     section.Key("from").String(),
		To:       section.Key("to").Strings(","),
	}, nil
}
