// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package cfgstruct

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	var config struct {
		Database string `help:"where the database lives" default:"$CONFDIR/forest.db"`
		Nested   struct {
			RetentionPeriod time.Duration `help:"how long" default:"336h"`
			Enabled         bool          `help:"on or off" releaseDefault:"true" devDefault:"false"`
			Workers         int           `help:"how many" default:"4"`
			Rate            float64       `help:"how fast" default:"0.1"`
			Targets         []string      `help:"which ones" default:"a,b"`
		}
	}

	flags := pflag.NewFlagSet("test", pflag.PanicOnError)
	Bind(flags, &config, ConfDir("/tmp/conf"))

	require.Equal(t, "/tmp/conf/forest.db", config.Database)
	require.Equal(t, 336*time.Hour, config.Nested.RetentionPeriod)
	require.True(t, config.Nested.Enabled)
	require.Equal(t, 4, config.Nested.Workers)
	require.Equal(t, 0.1, config.Nested.Rate)
	require.Equal(t, []string{"a", "b"}, config.Nested.Targets)

	// nested fields get dot-separated hyphenated flag names
	require.NotNil(t, flags.Lookup("database"))
	require.NotNil(t, flags.Lookup("nested.retention-period"))
	require.NotNil(t, flags.Lookup("nested.workers"))

	require.NoError(t, flags.Parse([]string{
		"--nested.retention-period", "24h",
		"--nested.targets", "c",
	}))
	require.Equal(t, 24*time.Hour, config.Nested.RetentionPeriod)
	require.Equal(t, []string{"c"}, config.Nested.Targets)
}

func TestBindDevDefaults(t *testing.T) {
	var config struct {
		Enabled bool `help:"on or off" releaseDefault:"true" devDefault:"false"`
	}

	flags := pflag.NewFlagSet("test", pflag.PanicOnError)
	Bind(flags, &config, UseDevDefaults())
	require.False(t, config.Enabled)
}

func TestBindRejectsNonPointer(t *testing.T) {
	var config struct{}
	flags := pflag.NewFlagSet("test", pflag.PanicOnError)

	require.Panics(t, func() { Bind(flags, config) })
}

func TestBindRejectsUnsupportedType(t *testing.T) {
	var config struct {
		Bad uint `help:"unsupported"`
	}
	flags := pflag.NewFlagSet("test", pflag.PanicOnError)

	require.Panics(t, func() { Bind(flags, &config) })
}

func TestHyphenate(t *testing.T) {
	require.Equal(t, "retention-period", hyphenate("RetentionPeriod"))
	require.Equal(t, "gc", hyphenate("GC"))
	require.Equal(t, "max-exact-live-refs", hyphenate("MaxExactLiveRefs"))
	require.Equal(t, "interval", hyphenate("Interval"))
}
