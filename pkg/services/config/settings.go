package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Settings is the process-wide configuration. Values come from an optional
// config file with SITEREPORT_* environment overrides; credentials are only
// ever supplied this way.
type Settings struct {
	ServerHost string `mapstructure:"server_host"`
	ServerPort string `mapstructure:"server_port"`
	Timezone   string `mapstructure:"timezone"`

	Weather WeatherSettings `mapstructure:"weather"`
	SMTP    SMTPSettings    `mapstructure:"smtp"`
}

type WeatherSettings struct {
	APIKey    string  `mapstructure:"api_key"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

type SMTPSettings struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// Load reads settings from path (optional) and the environment. Defaults
// point the weather lookup at Albuquerque, NM and SMTP at the submission
// port.
func Load(path string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", "8080")
	v.SetDefault("timezone", "America/Denver")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.latitude", 35.0853)
	v.SetDefault("weather.longitude", -106.6056)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.to", []string{})

	v.SetEnvPrefix("SITEREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &s, nil
}
