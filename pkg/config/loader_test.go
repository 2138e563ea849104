package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/config"
)

type serviceConfig struct {
	Driver  string        `env:"CONFIG_TEST_DRIVER" envDefault:"memory"`
	Topics  []string      `env:"CONFIG_TEST_TOPICS" envSeparator:","`
	Name    string        `env:"CONFIG_TEST_NAME"`
	Timeout time.Duration `env:"CONFIG_TEST_TIMEOUT" envDefault:"5s"`
}

type requiredConfig struct {
	Secret string `env:"CONFIG_TEST_SECRET,required"`
}

type checkedConfig struct {
	Size int `env:"CONFIG_TEST_SIZE" envDefault:"0"`
}

func (c *checkedConfig) Validate() error {
	if c.Size <= 0 {
		return errors.New("size must be positive")
	}
	return nil
}

func TestLoad(t *testing.T) {
	config.Reset()
	t.Setenv("CONFIG_TEST_DRIVER", "")
	t.Setenv("CONFIG_TEST_TIMEOUT", "2s")

	var cfg serviceConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 2*time.Second, cfg.Timeout)

	t.Setenv("CONFIG_TEST_TIMEOUT", "9s")
	var again serviceConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, 2*time.Second, again.Timeout, "served from cache")

	config.Reset()
	require.NoError(t, config.Load(&again))
	assert.Equal(t, 9*time.Second, again.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	config.Reset()

	var nilCfg *serviceConfig
	assert.ErrorIs(t, config.Load(nilCfg), config.ErrNilPointer)

	var req requiredConfig
	assert.ErrorIs(t, config.Load(&req), config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&req) })

	var checked checkedConfig
	assert.ErrorIs(t, config.Load(&checked), config.ErrInvalidConfig)

	config.Reset()
	t.Setenv("CONFIG_TEST_SIZE", "3")
	require.NoError(t, config.Load(&checked))
	assert.Equal(t, 3, checked.Size)
}

func TestLoadEnv(t *testing.T) {
	config.Reset()
	t.Setenv("CONFIG_TEST_DRIVER", "")
	t.Setenv("CONFIG_TEST_TOPICS", "")
	t.Setenv("CONFIG_TEST_NAME", "")

	require.NoError(t, config.LoadEnv("testdata/.env.base", "testdata/.env.override"))

	var cfg serviceConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, []string{"events", "users"}, cfg.Topics)
	assert.Equal(t, "quoted value", cfg.Name)

	assert.Error(t, config.LoadEnv("testdata/missing.env"))
}
