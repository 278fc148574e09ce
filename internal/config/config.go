package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/blefrag/internal/gatt"
	"github.com/danmuck/blefrag/internal/logging"
)

// fileConfig is the blehostd config.toml key mapping.
type fileConfig struct {
	Name              string   `toml:"name"`
	AdminListenAddr   string   `toml:"admin_listen_addr"`
	StreamIdleTimeout string   `toml:"stream_idle_timeout"`
	SweepInterval     string   `toml:"sweep_interval"`
	Characteristics   []string `toml:"characteristics"`
	LogLevel          string   `toml:"log_level"`
	AdminToken        string   `toml:"admin_token" comment:"bearer token for DELETE /streams/:peer; empty leaves the admin API unguarded"`
}

// HostFile is the resolved content of a host config file.
type HostFile struct {
	Host       gatt.HostConfig
	LogLevel   string
	// AdminToken, when set, is required as a bearer token on mutating
	// admin routes.
	AdminToken string
}

// LoadHostConfig overlays the keys defined in path on gatt defaults.
func LoadHostConfig(path string) (HostFile, error) {
	out := HostFile{Host: gatt.DefaultHostConfig(), LogLevel: "info"}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return HostFile{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return HostFile{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("name") {
		out.Host.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("admin_listen_addr") {
		out.Host.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}
	if meta.IsDefined("stream_idle_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.StreamIdleTimeout))
		if err != nil {
			return HostFile{}, fmt.Errorf("parse stream_idle_timeout: %w", err)
		}
		out.Host.StreamIdleTimeout = d
	}
	if meta.IsDefined("sweep_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SweepInterval))
		if err != nil {
			return HostFile{}, fmt.Errorf("parse sweep_interval: %w", err)
		}
		out.Host.SweepInterval = d
	}
	if meta.IsDefined("characteristics") {
		out.Host.Characteristics = normalizeIDs(raw.Characteristics)
	}
	if meta.IsDefined("admin_token") {
		out.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("log_level") {
		out.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := Validate(out); err != nil {
		return HostFile{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return out, nil
}

func Validate(cfg HostFile) error {
	if err := cfg.Host.Validate(); err != nil {
		return err
	}
	if cfg.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
		}
	}
	return nil
}

func normalizeIDs(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, id := range in {
		v := strings.ToLower(strings.TrimSpace(id))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
