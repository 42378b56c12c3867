// Package config loads the server's YAML configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ICEServer mirrors a single WebRTC ICE server entry.
type ICEServer struct {
	URLs       []string `yaml:"urls"`
	Username   string   `yaml:"username,omitempty"`
	Credential string   `yaml:"credential,omitempty"`
}

// Config is the full server configuration.
type Config struct {
	Addr                string      `yaml:"addr"`
	TickRate            int         `yaml:"tick_rate"`
	Debug               bool        `yaml:"debug"`
	ICEServers          []ICEServer `yaml:"ice_servers"`
	InputQueueCapacity  int         `yaml:"input_queue_capacity"`
	RenderQueueCapacity int         `yaml:"render_queue_capacity"`
	RenderBytesPerSec   int         `yaml:"render_bytes_per_sec"`
	EventLogPath        string      `yaml:"event_log_path"`
}

// Default returns a Config populated with the spec's defaults, used when
// no config file is given or a field is omitted.
func Default() Config {
	return Config{
		Addr:                ":3425",
		TickRate:            30,
		Debug:               false,
		InputQueueCapacity:  100,
		RenderQueueCapacity: 30,
		RenderBytesPerSec:   1 << 20,
		EventLogPath:        "nocturne.db",
	}
}

// Load reads and parses a YAML config file at path, layering it over
// Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
