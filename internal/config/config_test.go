package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/forensicstore/internal/logging"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, "type", cfg.Container.Discriminator)
	require.True(t, cfg.Container.Strict)
	require.Equal(t, logging.Info, cfg.LogLevel())
}

func TestParseOverridesDefaults(t *testing.T) {
	doc := `
[container]
discriminator = "kind"
strict = false

[logging]
level = "debug"
file = "store.log"
`
	cfg, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, "kind", cfg.Container.Discriminator)
	require.False(t, cfg.Container.Strict)
	require.Equal(t, logging.Debug, cfg.LogLevel())
	require.Equal(t, "store.log", cfg.Logging.File)
}
