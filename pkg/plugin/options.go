package plugin

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"go.minekube.com/serverpacks/pkg/pack"
	"go.minekube.com/serverpacks/pkg/settings"
)

// Permission is required to run the /pack command.
// The console has every permission.
const Permission = "serverpacks.command.pack"

// Options are plugin options. They are runtime knobs only, the pack
// itself is configured in the settings file.
type Options struct {
	// SettingsFile is the path of the settings file.
	SettingsFile string
	// Permission overrides the /pack command permission.
	Permission string
	// MaxPackSize is the maximum pack size in bytes accepted when hashing.
	MaxPackSize int64
	// DownloadTimeout bounds a single pack download.
	DownloadTimeout time.Duration
	// PushRate is the number of offers sent per second during a push.
	PushRate float64
	// PushBurst is the number of offers sent at once during a push.
	PushBurst int
	// PushConcurrency bounds concurrently sent offers.
	PushConcurrency int

	// Hasher replaces the HTTP digester, mostly useful in tests.
	Hasher pack.Hasher
}

// DefaultOptions returns the default plugin options.
func DefaultOptions() Options {
	return Options{
		SettingsFile:    settings.DefaultFile,
		Permission:      Permission,
		MaxPackSize:     pack.DefaultMaxSize,
		DownloadTimeout: pack.DefaultTimeout,
		PushRate:        float64(pack.DefaultPushRate),
		PushBurst:       pack.DefaultPushBurst,
		PushConcurrency: pack.DefaultPushConcurrency,
	}
}

// LoadOptions reads Options from SERVERPACKS_ prefixed environment
// variables, e.g. SERVERPACKS_FILE or SERVERPACKS_PUSH_RATE.
func LoadOptions() (Options, error) {
	def := DefaultOptions()
	v := viper.New()
	v.SetDefault("file", def.SettingsFile)
	v.SetDefault("permission", def.Permission)
	v.SetDefault("max_pack_size", def.MaxPackSize)
	v.SetDefault("download_timeout", def.DownloadTimeout)
	v.SetDefault("push_rate", def.PushRate)
	v.SetDefault("push_burst", def.PushBurst)
	v.SetDefault("push_concurrency", def.PushConcurrency)
	v.SetEnvPrefix(settings.DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	opts := Options{
		SettingsFile:    v.GetString("file"),
		Permission:      v.GetString("permission"),
		MaxPackSize:     v.GetInt64("max_pack_size"),
		DownloadTimeout: v.GetDuration("download_timeout"),
		PushRate:        v.GetFloat64("push_rate"),
		PushBurst:       v.GetInt("push_burst"),
		PushConcurrency: v.GetInt("push_concurrency"),
	}
	if err := opts.validate(); err != nil {
		return def, err
	}
	return opts, nil
}

func (o *Options) validate() error {
	switch {
	case o.SettingsFile == "":
		return fmt.Errorf("settings file must not be empty")
	case o.MaxPackSize < 0:
		return fmt.Errorf("max pack size must not be negative, got %d", o.MaxPackSize)
	case o.DownloadTimeout < 0:
		return fmt.Errorf("download timeout must not be negative, got %s", o.DownloadTimeout)
	case o.PushRate < 0:
		return fmt.Errorf("push rate must not be negative, got %v", o.PushRate)
	}
	return nil
}

func (o *Options) pushRate() rate.Limit {
	if o.PushRate == 0 {
		return rate.Inf
	}
	return rate.Limit(o.PushRate)
}
