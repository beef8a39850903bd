package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cjeanneret/photobooth/internal/logic/layout"
	"gopkg.in/yaml.v3"
)

// BoothConfig holds the capture sequence settings.
type BoothConfig struct {
	Template       string `yaml:"template"`        // default template: single, two, four, polaroid, multi-N
	Border         string `yaml:"border"`          // default border: none, white, rounded, film, vintage
	FirstCountdown int    `yaml:"first_countdown"` // countdown units before the first shot
	NextCountdown  int    `yaml:"next_countdown"`  // countdown units before each following shot
	TickMs         int    `yaml:"tick_ms"`         // duration of one countdown unit (ms)
	CooldownMs     int    `yaml:"cooldown_ms"`     // minimum gap between two triggers (ms). 0 = no limit.
}

// CameraConfig describes the live frame source.
// Type selects a concrete implementation ("pattern", "command" or "remote").
type CameraConfig struct {
	Type       string   `yaml:"type"`        // e.g., "pattern", "command", "remote"
	WidthPx    int      `yaml:"width_px"`    // live frame width (pattern source)
	HeightPx   int      `yaml:"height_px"`   // live frame height (pattern source)
	Command    string   `yaml:"command"`     // still capture (or fetch) command writing PNG/JPEG to stdout
	Args       []string `yaml:"args"`        // arguments of the capture command
	TimeoutMs  int      `yaml:"timeout_ms"`  // capture command timeout (ms)
	FocusPin   int      `yaml:"focus_pin"`   // remote: FOCUS line of the DSLR connector (BCM)
	ShutterPin int      `yaml:"shutter_pin"` // remote: SHUTTER line of the DSLR connector (BCM)
	FocusMs    int      `yaml:"focus_ms"`    // remote: autofocus wait (ms)
	ShutterMs  int      `yaml:"shutter_ms"`  // remote: shutter hold time (ms)
}

// GPIOConfig holds the physical trigger button and flash wiring.
type GPIOConfig struct {
	Mock       bool `yaml:"mock"`        // use mock GPIO (true=dev/test, false=real Raspberry Pi)
	TriggerPin int  `yaml:"trigger_pin"` // button input pin (BCM), active LOW with pull-up. 0 = no button.
	FlashPin   int  `yaml:"flash_pin"`   // flash LED output pin (BCM). 0 = no flash.
	FlashMs    int  `yaml:"flash_ms"`    // flash pulse length (ms)
	DebounceMs int  `yaml:"debounce_ms"` // button debounce window (ms)
	PollMs     int  `yaml:"poll_ms"`     // button polling interval (ms)
}

// PrintConfig describes the OS print command and printer enumeration.
type PrintConfig struct {
	Command       string   `yaml:"command"`         // e.g., "lp" or "mspaint"
	Args          []string `yaml:"args"`            // templates with {file} and {printer}
	PrinterFlag   string   `yaml:"printer_flag"`    // flag placed before {printer}, e.g. "-d"
	ListCommand   string   `yaml:"list_command"`    // e.g., "lpstat". Empty = no enumeration.
	ListArgs      []string `yaml:"list_args"`       // e.g., ["-e"]
	TimeoutMs     int      `yaml:"timeout_ms"`      // print command timeout (ms)
	ListTimeoutMs int      `yaml:"list_timeout_ms"` // enumeration timeout (ms)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	ArtifactDir string `yaml:"artifact_dir"` // where captures and PDFs are written
	URLPrefix   string `yaml:"url_prefix"`   // URL path artifacts are downloadable under
	MaxBodyMB   int    `yaml:"max_body_mb"`  // POST /print body limit
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// Config aggregates all application configuration.
type Config struct {
	Booth    BoothConfig    `yaml:"booth"`
	Camera   CameraConfig   `yaml:"camera"`
	GPIO     GPIOConfig     `yaml:"gpio"`
	Print    PrintConfig    `yaml:"print"`
	Server   ServerConfig   `yaml:"server"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath rejects config paths that are not .yaml files
// directly inside a "configs" directory.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if strings.Contains(filepath.ToSlash(path), "..") {
		return fmt.Errorf("config path must not contain '..': %s", path)
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config file must have .yaml extension: %s", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config file must live in a configs/ directory: %s", path)
	}
	return nil
}

// Default returns a configuration with every default applied.
// Used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// MaxConfigFileBytes bounds the size of a config file.
const MaxConfigFileBytes = 1 << 20

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxConfigFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Booth.Template == "" {
		cfg.Booth.Template = "single"
	}
	if cfg.Booth.Border == "" {
		cfg.Booth.Border = "none"
	}
	if cfg.Booth.FirstCountdown <= 0 {
		cfg.Booth.FirstCountdown = 3 // 3 seconds before the first/single shot
	}
	if cfg.Booth.NextCountdown <= 0 {
		cfg.Booth.NextCountdown = 1 // 1 second between shots of a strip
	}
	if cfg.Booth.TickMs <= 0 {
		cfg.Booth.TickMs = 1000
	}

	if cfg.Camera.Type == "" {
		cfg.Camera.Type = "pattern"
	}
	if cfg.Camera.WidthPx <= 0 {
		cfg.Camera.WidthPx = 1280
	}
	if cfg.Camera.HeightPx <= 0 {
		cfg.Camera.HeightPx = 720
	}
	if cfg.Camera.TimeoutMs <= 0 {
		cfg.Camera.TimeoutMs = 10000
	}
	if cfg.Camera.FocusMs <= 0 {
		cfg.Camera.FocusMs = 500
	}
	if cfg.Camera.ShutterMs <= 0 {
		cfg.Camera.ShutterMs = 200
	}

	if cfg.GPIO.FlashMs <= 0 {
		cfg.GPIO.FlashMs = 120
	}
	if cfg.GPIO.DebounceMs <= 0 {
		cfg.GPIO.DebounceMs = 200
	}
	if cfg.GPIO.PollMs <= 0 {
		cfg.GPIO.PollMs = 20
	}

	if cfg.Print.Command == "" {
		cfg.Print.Command = "lp"
		if cfg.Print.PrinterFlag == "" {
			cfg.Print.PrinterFlag = "-d"
		}
		if cfg.Print.ListCommand == "" {
			cfg.Print.ListCommand = "lpstat"
			cfg.Print.ListArgs = []string{"-e"}
		}
	}
	if len(cfg.Print.Args) == 0 {
		cfg.Print.Args = []string{"{printer}", "{file}"}
	}
	if cfg.Print.TimeoutMs <= 0 {
		cfg.Print.TimeoutMs = 30000
	}
	if cfg.Print.ListTimeoutMs <= 0 {
		cfg.Print.ListTimeoutMs = 5000
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ArtifactDir == "" {
		cfg.Server.ArtifactDir = "tmp"
	}
	if cfg.Server.URLPrefix == "" {
		cfg.Server.URLPrefix = "/tmp"
	}
	if cfg.Server.MaxBodyMB <= 0 {
		cfg.Server.MaxBodyMB = 50
	}
}

func (c *Config) validate() error {
	if _, err := layout.ParseTemplate(c.Booth.Template); err != nil {
		return fmt.Errorf("booth.template: %w", err)
	}
	if _, err := layout.ParseBorder(c.Booth.Border); err != nil {
		return fmt.Errorf("booth.border: %w", err)
	}
	switch c.Camera.Type {
	case "pattern":
	case "command":
		if c.Camera.Command == "" {
			return fmt.Errorf("camera.command is required for camera type %q", c.Camera.Type)
		}
	case "remote":
		if c.Camera.Command == "" {
			return fmt.Errorf("camera.command is required for camera type %q", c.Camera.Type)
		}
		if c.Camera.FocusPin <= 0 || c.Camera.ShutterPin <= 0 || c.Camera.FocusPin == c.Camera.ShutterPin {
			return fmt.Errorf("camera.focus_pin and camera.shutter_pin must be distinct pins > 0")
		}
	default:
		return fmt.Errorf("unsupported camera type: %s", c.Camera.Type)
	}
	if c.Booth.CooldownMs < 0 {
		return fmt.Errorf("booth.cooldown_ms must be >= 0, got %d", c.Booth.CooldownMs)
	}
	if c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.URLPrefix, "/") || strings.Trim(c.Server.URLPrefix, "/") == "" {
		return fmt.Errorf("server.url_prefix must be an absolute path below '/', got %q", c.Server.URLPrefix)
	}
	if c.GPIO.TriggerPin < 0 || c.GPIO.FlashPin < 0 {
		return fmt.Errorf("gpio pins must be >= 0")
	}
	if c.GPIO.TriggerPin != 0 && c.GPIO.TriggerPin == c.GPIO.FlashPin {
		return fmt.Errorf("gpio.trigger_pin and gpio.flash_pin must differ, both are %d", c.GPIO.TriggerPin)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	return nil
}

// Tick returns the duration of one countdown unit.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.Booth.TickMs) * time.Millisecond
}

// Cooldown returns the minimum gap between two capture triggers.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Booth.CooldownMs) * time.Millisecond
}

// CameraTimeout returns the capture command timeout.
func (c *Config) CameraTimeout() time.Duration {
	return time.Duration(c.Camera.TimeoutMs) * time.Millisecond
}

// FocusDelay returns the remote autofocus wait.
func (c *Config) FocusDelay() time.Duration {
	return time.Duration(c.Camera.FocusMs) * time.Millisecond
}

// ShutterDelay returns the remote shutter hold time.
func (c *Config) ShutterDelay() time.Duration {
	return time.Duration(c.Camera.ShutterMs) * time.Millisecond
}

// FlashDuration returns the flash pulse length.
func (c *Config) FlashDuration() time.Duration {
	return time.Duration(c.GPIO.FlashMs) * time.Millisecond
}

// Debounce returns the button debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.GPIO.DebounceMs) * time.Millisecond
}

// PollInterval returns the button polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.GPIO.PollMs) * time.Millisecond
}

// PrintTimeout returns the print command timeout.
func (c *Config) PrintTimeout() time.Duration {
	return time.Duration(c.Print.TimeoutMs) * time.Millisecond
}

// ListTimeout returns the printer enumeration timeout.
func (c *Config) ListTimeout() time.Duration {
	return time.Duration(c.Print.ListTimeoutMs) * time.Millisecond
}

// MaxBodyBytes returns the POST /print body limit in bytes.
func (c *Config) MaxBodyBytes() int64 {
	return int64(c.Server.MaxBodyMB) << 20
}
