// Package config loads the process configuration from an optional file and OVERWATCH_* environment variables
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyclopcam/overwatch/pkg/alert"
	"github.com/cyclopcam/overwatch/server/notifications"
	"github.com/cyclopcam/overwatch/server/tracking"
	"github.com/spf13/viper"
)

type FaceConfig struct {
	URL     string        // Base URL of the face recognition service. Empty disables face recognition.
	Timeout time.Duration // Per request timeout
}

type Config struct {
	HTTPAddr      string // eg ":8080"
	DataDir       string // Where the sqlite databases live
	Face          FaceConfig
	Notifications notifications.Config
	Engine        tracking.Settings // Defaults, until the operator saves settings of their own
}

// Load reads the configuration.
// If filename is empty, we search for overwatch.{yaml,json,toml,env} in the current directory
// and /etc/overwatch, and it is not an error if none is found.
// Every key can be overridden by an environment variable, eg OVERWATCH_HTTP_ADDR.
func Load(filename string) (*Config, error) {
	v := viper.New()
	if filename != "" {
		v.SetConfigFile(filename)
	} else {
		v.SetConfigName("overwatch")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/overwatch")
	}
	v.SetEnvPrefix("OVERWATCH")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if filename != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Error loading config: %w", err)
		}
	}

	disabled := []alert.Category{}
	for _, c := range v.GetStringSlice("notify_disabled_categories") {
		disabled = append(disabled, alert.Category(c))
	}

	cfg := &Config{
		HTTPAddr: v.GetString("http_addr"),
		DataDir:  v.GetString("data_dir"),
		Face: FaceConfig{
			URL:     v.GetString("face_url"),
			Timeout: v.GetDuration("face_timeout"),
		},
		Notifications: notifications.Config{
			WebhookURL:         v.GetString("webhook_url"),
			PushoverURL:        v.GetString("pushover_url"),
			PushoverToken:      v.GetString("pushover_token"),
			PushoverUser:       v.GetString("pushover_user"),
			MinSeverity:        alert.Severity(v.GetInt("notify_min_severity")),
			DisabledCategories: disabled,
			QueueSize:          v.GetInt("notify_queue_size"),
			HTTPTimeout:        v.GetDuration("notify_timeout"),
		},
		Engine: tracking.Settings{
			FrameInterval:       v.GetDuration("frame_interval"),
			IOUThreshold:        v.GetFloat64("iou_threshold"),
			MaxTrackAge:         v.GetDuration("max_track_age"),
			MaxVelocity:         v.GetFloat64("max_velocity"),
			MinMovement:         v.GetFloat64("min_movement"),
			MaxStationaryTime:   v.GetDuration("max_stationary_time"),
			PixelToMeter:        v.GetFloat64("pixel_to_meter"),
			FaceAcceptThreshold: v.GetFloat64("face_accept_threshold"),
			Association:         v.GetString("association"),
			Verbose:             v.GetBool("verbose"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	engine := tracking.DefaultSettings()
	notify := notifications.DefaultConfig()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("data_dir", "data")
	v.SetDefault("face_url", "")
	v.SetDefault("face_timeout", 2*time.Second)
	v.SetDefault("webhook_url", "")
	v.SetDefault("pushover_url", notify.PushoverURL)
	v.SetDefault("pushover_token", "")
	v.SetDefault("pushover_user", "")
	v.SetDefault("notify_min_severity", int(notify.MinSeverity))
	v.SetDefault("notify_disabled_categories", []string{})
	v.SetDefault("notify_queue_size", notify.QueueSize)
	v.SetDefault("notify_timeout", notify.HTTPTimeout)
	v.SetDefault("frame_interval", engine.FrameInterval)
	v.SetDefault("iou_threshold", engine.IOUThreshold)
	v.SetDefault("max_track_age", engine.MaxTrackAge)
	v.SetDefault("max_velocity", engine.MaxVelocity)
	v.SetDefault("min_movement", engine.MinMovement)
	v.SetDefault("max_stationary_time", engine.MaxStationaryTime)
	v.SetDefault("pixel_to_meter", engine.PixelToMeter)
	v.SetDefault("face_accept_threshold", engine.FaceAcceptThreshold)
	v.SetDefault("association", engine.Association)
	v.SetDefault("verbose", false)
}

func validate(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if cfg.Face.URL != "" && cfg.Face.Timeout <= 0 {
		return fmt.Errorf("face_timeout must be positive")
	}
	if cfg.Notifications.MinSeverity < alert.SeverityLow || cfg.Notifications.MinSeverity > alert.SeverityMax {
		return fmt.Errorf("notify_min_severity must be between %v and %v", int(alert.SeverityLow), int(alert.SeverityMax))
	}
	if cfg.Notifications.QueueSize <= 0 {
		return fmt.Errorf("notify_queue_size must be positive")
	}
	for _, c := range cfg.Notifications.DisabledCategories {
		if !c.IsValid() {
			return fmt.Errorf("Unknown event category '%v' in notify_disabled_categories", c)
		}
	}
	if (cfg.Notifications.PushoverToken == "") != (cfg.Notifications.PushoverUser == "") {
		return fmt.Errorf("pushover_token and pushover_user must be set together")
	}
	return cfg.Engine.Validate()
}
