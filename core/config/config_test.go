package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NotNil(t, cfg)
	assert.Nil(t, cfg.Validate())
	assert.Equal(t, 50*time.Millisecond, cfg.ReapInterval())
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*Configuration)
		wantErr bool
	}{
		"default": {
			mutate: func(*Configuration) {},
		},
		"zero-reap-interval": {
			mutate:  func(c *Configuration) { c.ReapIntervalMillis = 0 },
			wantErr: true,
		},
		"huge-reap-interval": {
			mutate:  func(c *Configuration) { c.ReapIntervalMillis = 10001 },
			wantErr: true,
		},
		"bad-color": {
			mutate:  func(c *Configuration) { c.Color = "sometimes" },
			wantErr: true,
		},
		"never-color": {
			mutate: func(c *Configuration) { c.Color = ColorNever },
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFs(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadFs(afero.NewMemMapFs())
		assert.Error(t, err)
	})

	t.Run("unknown-field", func(t *testing.T) {
		memFs := afero.NewMemMapFs()
		assert.Nil(t, afero.WriteFile(memFs, ConfigurationName, []byte("bogus: true\n"), 0600))

		_, err := LoadFs(memFs)
		assert.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		memFs := afero.NewMemMapFs()
		contents := strings.Replace(string(defaultConfigData), "color: auto", "color: purple", 1)
		assert.Nil(t, afero.WriteFile(memFs, ConfigurationName, []byte(contents), 0600))

		_, err := LoadFs(memFs)
		assert.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		memFs := afero.NewMemMapFs()
		contents := strings.Replace(string(defaultConfigData), "foreground_only: false", "foreground_only: true", 1)
		assert.Nil(t, afero.WriteFile(memFs, ConfigurationName, []byte(contents), 0600))

		cfg, err := LoadFs(memFs)
		assert.NoError(t, err)
		assert.True(t, cfg.ForegroundOnly)
		assert.Equal(t, ": ", cfg.Prompt)
	})
}
