// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

// Package cfgstruct binds configuration structs to flag sets using struct
// tags: `help` documents the flag, `default` sets the value, and
// `releaseDefault`/`devDefault` select per-environment values.
package cfgstruct

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type bindOptions struct {
	confDir     string
	devDefaults bool
}

// BindOpt is an option for the Bind method.
type BindOpt func(*bindOptions)

// ConfDir sets the value replacing $CONFDIR in flag defaults.
func ConfDir(path string) BindOpt {
	return func(options *bindOptions) { options.confDir = path }
}

// UseDevDefaults selects devDefault tag values over releaseDefault ones.
func UseDevDefaults() BindOpt {
	return func(options *bindOptions) { options.devDefaults = true }
}

// Bind sets flags on a flag set from a config struct.
func Bind(flags *pflag.FlagSet, config interface{}, opts ...BindOpt) {
	ptr := reflect.ValueOf(config)
	if ptr.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("invalid config type: %T, expected pointer to struct", config))
	}
	val := ptr.Elem()
	if val.Kind() != reflect.Struct {
		panic(fmt.Sprintf("invalid config type: %T, expected pointer to struct", config))
	}

	var options bindOptions
	for _, opt := range opts {
		opt(&options)
	}
	bindConfig(flags, "", val, options)
}

func bindConfig(flags *pflag.FlagSet, prefix string, val reflect.Value, options bindOptions) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldval := val.Field(i)
		flagname := prefix + hyphenate(field.Name)

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			bindConfig(flags, flagname+".", fieldval, options)
			continue
		}

		help := field.Tag.Get("help")
		def := field.Tag.Get("default")
		if def == "" {
			if options.devDefaults {
				def = field.Tag.Get("devDefault")
			} else {
				def = field.Tag.Get("releaseDefault")
			}
		}
		def = strings.Replace(def, "$CONFDIR", options.confDir, -1)

		fieldaddr := fieldval.Addr().Interface()
		switch value := fieldaddr.(type) {
		case *time.Duration:
			flags.DurationVar(value, flagname, mustDuration(flagname, def), help)
		case *string:
			flags.StringVar(value, flagname, def, help)
		case *bool:
			flags.BoolVar(value, flagname, mustBool(flagname, def), help)
		case *int:
			flags.IntVar(value, flagname, int(mustInt(flagname, def)), help)
		case *int64:
			flags.Int64Var(value, flagname, mustInt(flagname, def), help)
		case *float64:
			flags.Float64Var(value, flagname, mustFloat(flagname, def), help)
		case *[]string:
			var slice []string
			if def != "" {
				slice = strings.Split(def, ",")
			}
			flags.StringSliceVar(value, flagname, slice, help)
		default:
			panic(fmt.Sprintf("invalid field type %v for flag %q", field.Type, flagname))
		}
	}
}

// hyphenate converts CamelCase field names to hyphenated flag names,
// e.g. "RetentionPeriod" becomes "retention-period".
func hyphenate(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && (name[i-1] < 'A' || name[i-1] > 'Z') {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func mustDuration(flagname, def string) time.Duration {
	if def == "" {
		return 0
	}
	parsed, err := time.ParseDuration(def)
	if err != nil {
		panic(fmt.Sprintf("invalid default duration for flag %q: %v", flagname, err))
	}
	return parsed
}

func mustBool(flagname, def string) bool {
	if def == "" {
		return false
	}
	parsed, err := strconv.ParseBool(def)
	if err != nil {
		panic(fmt.Sprintf("invalid default bool for flag %q: %v", flagname, err))
	}
	return parsed
}

func mustInt(flagname, def string) int64 {
	if def == "" {
		return 0
	}
	parsed, err := strconv.ParseInt(def, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("invalid default int for flag %q: %v", flagname, err))
	}
	return parsed
}

func mustFloat(flagname, def string) float64 {
	if def == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(def, 64)
	if err != nil {
		panic(fmt.Sprintf("invalid default float for flag %q: %v", flagname, err))
	}
	return parsed
}
