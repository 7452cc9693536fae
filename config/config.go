package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
)

type Profile struct {
	Width, Height int
	// JPEG quality, 1-100. Zero leaves the sensor default.
	Quality int
}

type Display struct {
	// One of "fbdev", "window" or "memory".
	Backend string
	// Framebuffer device for the fbdev backend.
	Device        string
	Width, Height int
}

type Config struct {
	// One of "webcam" or "files".
	Source string
	Device string

	// Replay settings for the files source.
	ReplayDir        string
	ReplayIntervalMs int

	LiveView Profile
	Still    Profile

	Display Display

	// Caps the frame buffer allocation. If zero, unlimited.
	MaxBufferBytes int

	PhotoBasePath string
	PhotoDir      string
	RequireMount  bool

	DebounceMs int
	FPSWindow  int
	BannerMs   int
	ShowFPS    bool

	Port int

	// If set, capture attempts are journaled to this MySQL database.
	JournalDSN string
}

func Default() *Config {
	return &Config{
		Source:           "webcam",
		Device:           "/dev/video0",
		ReplayIntervalMs: 66,
		LiveView:         Profile{Width: 320, Height: 240, Quality: 60},
		Still:            Profile{Width: 1600, Height: 1200, Quality: 95},
		Display: Display{
			Backend: "fbdev",
			Device:  "/dev/fb0",
			Width:   320,
			Height:  240,
		},
		PhotoBasePath: "/media/sdcard",
		PhotoDir:      "DCIM",
		RequireMount:  true,
		DebounceMs:    200,
		FPSWindow:     30,
		BannerMs:      2000,
		ShowFPS:       true,
		Port:          8080,
	}
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

func (c *Config) BannerTime() time.Duration {
	return time.Duration(c.BannerMs) * time.Millisecond
}

func (c *Config) ReplayInterval() time.Duration {
	return time.Duration(c.ReplayIntervalMs) * time.Millisecond
}

func (p Profile) validate(name string) error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%s profile: invalid size %dx%d", name, p.Width, p.Height)
	}
	if p.Quality < 0 || p.Quality > 100 {
		return fmt.Errorf("%s profile: quality %d out of range", name, p.Quality)
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Source {
	case "webcam":
		if c.Device == "" {
			return fmt.Errorf("webcam source needs a device")
		}
	case "files":
		if c.ReplayDir == "" {
			return fmt.Errorf("files source needs a replay directory")
		}
		if c.ReplayIntervalMs < 0 {
			return fmt.Errorf("negative replay interval")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if err := c.LiveView.validate("live view"); err != nil {
		return err
	}
	if err := c.Still.validate("still"); err != nil {
		return err
	}
	switch c.Display.Backend {
	case "fbdev", "window", "memory":
	default:
		return fmt.Errorf("unknown display backend %q", c.Display.Backend)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.PhotoBasePath == "" {
		return fmt.Errorf("no photo base path")
	}
	if c.DebounceMs < 0 || c.BannerMs < 0 || c.FPSWindow < 0 || c.MaxBufferBytes < 0 {
		return fmt.Errorf("negative interval or size")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Load reads the JSON file at path over the defaults. An empty path loads the
// defaults alone.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		p := json.NewDecoder(f)
		p.DisallowUnknownFields()
		if err := p.Decode(config); err != nil {
			return nil, fmt.Errorf("parse %v: %w", path, err)
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	log.Infof("Loaded configuration: %v", spew.Sdump(config))
	return config, nil
}
