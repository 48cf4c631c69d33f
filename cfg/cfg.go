package cfg

import (
	"papareo"
)

type Config struct {
	Papareo papareo.Config `yaml:"papareo"`

	Output OutputConfig `yaml:"output"`
}

type OutputConfig struct {
	// Dir is where transcripts are written. Empty means alongside the
	// recording.
	Dir string `yaml:"dir"`
}
