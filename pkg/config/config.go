package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	// 日志配置
	Log Log

	Demux   Demux
	Metrics Metrics
	FLV     FLV
}

type Log struct {
	Path         string // empty: stderr
	Level        string
	RotationTime time.Duration
	Age          int // days
}

type Demux struct {
	VerifyCRC   bool
	DropUnknown bool
}

type Metrics struct {
	Addr string // prometheus listen address, empty disables
}

type FLV struct {
	OutDir string // remux PCM streams into FLV files here, empty disables
}

// flag name -> config key
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-path":     "log.path",
	"verify-crc":   "demux.verifyCRC",
	"drop-unknown": "demux.dropUnknown",
	"metrics-addr": "metrics.addr",
	"flv-out":      "flv.outDir",
}

// Flags returns the command line flags that override config file values.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("oggprobe", pflag.ContinueOnError)
	fs.String("config", "", "directory holding config.yaml")
	fs.String("log-level", "info", "log level")
	fs.String("log-path", "", "log file path, rotated daily")
	fs.Bool("verify-crc", true, "verify ogg page checksums")
	fs.Bool("drop-unknown", true, "drop packets of streams with an unknown codec")
	fs.String("metrics-addr", "", "serve prometheus metrics on this address")
	fs.String("flv-out", "", "remux PCM streams into FLV files in this directory")
	return fs
}

// Load reads config.yaml from configPath, if present, and applies the
// flags that were set on fs. fs may be nil.
func Load(configPath string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.age", 7)
	v.SetDefault("log.rotationTime", 24*time.Hour)
	v.SetDefault("demux.verifyCRC", true)
	v.SetDefault("demux.dropUnknown", true)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read in config")
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	c := new(Config)
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "Unmarshal config")
	}

	return c, nil
}

// DefaultPath is the config directory next to the running binary.
func DefaultPath() (string, error) {
	binPath, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(filepath.Dir(binPath), "config")
	return configPath, nil
}
