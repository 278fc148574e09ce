package config

import (
	"fmt"
	"os"

	"github.com/danmuck/blefrag/internal/catalog"
	"github.com/danmuck/blefrag/internal/gatt"
	"github.com/pelletier/go-toml/v2"
)

// Template renders the default host config, listing the demo catalog
// characteristics.
func Template() ([]byte, error) {
	def := gatt.DefaultHostConfig()
	raw := fileConfig{
		Name:              def.Name,
		AdminListenAddr:   def.AdminListenAddr,
		StreamIdleTimeout: def.StreamIdleTimeout.String(),
		SweepInterval:     def.SweepInterval.String(),
		Characteristics:   catalog.New().CharacteristicIDs(),
		LogLevel:          "info",
	}
	b, err := toml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("config template render failed: %w", err)
	}
	return b, nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, template, 0o600)
}
