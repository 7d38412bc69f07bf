package config

import (
	_ "embed"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"

	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs afero.Fs

	Prompt               string `json:"prompt"`
	HistoryFile          string `json:"history_file"`
	ForegroundOnly       bool   `json:"foreground_only"`
	ReapIntervalMillis   int    `json:"reap_interval_ms" validate:"gte=1,lte=10000"`
	Color                string `json:"color" validate:"oneof=always auto never"`
	KillBackgroundOnExit bool   `json:"kill_background_on_exit"`
	EventLog             string `json:"event_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// ReapInterval is the minimum time between two reaper passes.
func (c *Configuration) ReapInterval() time.Duration {
	return time.Duration(c.ReapIntervalMillis) * time.Millisecond
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewMemMapFs()
	}
	return c.configFs
}

// HistoryPath returns the path of the history file on the host, or an empty
// string if history shouldn't be persisted.
func (c *Configuration) HistoryPath() string {
	if c.HistoryFile == "" {
		return ""
	}

	bp, ok := c.fs().(*afero.BasePathFs)
	if !ok {
		return ""
	}

	realPath, err := bp.RealPath(c.HistoryFile)
	if err != nil {
		return ""
	}
	return realPath
}

// OpenEventLog opens the event log in an append only state. If the log is
// disabled the returned file is held in memory.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if c.EventLog == "" {
		return afero.NewMemMapFs().Create("events.log")
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

// Default returns the built-in configuration backed by an in-memory
// filesystem, nothing it writes survives the process.
func Default() *Configuration {
	return defaultConfig()
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	out.configFs = afero.NewMemMapFs()
	return &out
}
