package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	LogLevel string
	Write    WriteConfig
	Crop     CropConfig
}

// WriteConfig configures the metadata write pipeline
type WriteConfig struct {
	BaseDir      string
	OutputPath   string
	TempDir      string
	ExiftoolPath string
	Metafile     string
	DirDepth     int
	Wildcards    string
	Concurrency  int
	DryRun       bool
}

// CropConfig configures crop region detection and renaming
type CropConfig struct {
	Color         string
	CheckMultiple int
	DirDepth      int
	Wildcards     string
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel: "info",
		Write: WriteConfig{
			Metafile:    "metadata.txt",
			DirDepth:    -1,
			Wildcards:   "*.tif,*.tiff",
			Concurrency: 4,
		},
		Crop: CropConfig{
			Color:         "0,0,0",
			CheckMultiple: 8,
			DirDepth:      -1,
			Wildcards:     "*.tif,*.tiff",
		},
	}
}

// LoadFile merges settings from a YAML, TOML or JSON file. A file value is
// taken only for fields still holding their built-in default, so flags given
// on the command line keep precedence even though they parse first.
func (c *Config) LoadFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	defaults := New()
	setString := func(key string, dst, def *string) {
		if v.IsSet(key) && *dst == *def {
			*dst = v.GetString(key)
		}
	}
	setInt := func(key string, dst, def *int) {
		if v.IsSet(key) && *dst == *def {
			*dst = v.GetInt(key)
		}
	}
	setBool := func(key string, dst, def *bool) {
		if v.IsSet(key) && *dst == *def {
			*dst = v.GetBool(key)
		}
	}

	setString("log_level", &c.LogLevel, &defaults.LogLevel)
	setString("write.base_dir", &c.Write.BaseDir, &defaults.Write.BaseDir)
	setString("write.output_path", &c.Write.OutputPath, &defaults.Write.OutputPath)
	setString("write.temp_dir", &c.Write.TempDir, &defaults.Write.TempDir)
	setString("write.exiftool_path", &c.Write.ExiftoolPath, &defaults.Write.ExiftoolPath)
	setString("write.metafile", &c.Write.Metafile, &defaults.Write.Metafile)
	setInt("write.dir_depth", &c.Write.DirDepth, &defaults.Write.DirDepth)
	setString("write.wildcards", &c.Write.Wildcards, &defaults.Write.Wildcards)
	setInt("write.concurrency", &c.Write.Concurrency, &defaults.Write.Concurrency)
	setBool("write.dry_run", &c.Write.DryRun, &defaults.Write.DryRun)
	setString("crop.color", &c.Crop.Color, &defaults.Crop.Color)
	setInt("crop.check_multiple", &c.Crop.CheckMultiple, &defaults.Crop.CheckMultiple)
	setInt("crop.dir_depth", &c.Crop.DirDepth, &defaults.Crop.DirDepth)
	setString("crop.wildcards", &c.Crop.Wildcards, &defaults.Crop.Wildcards)
	return nil
}
