// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package process

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/zeebo/errs"
)

// SaveConfig writes the flag set as a yaml config file, one commented entry
// per flag. Overrides replace flag values by name.
func SaveConfig(flags *pflag.FlagSet, outfile string, overrides map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(outfile), 0700); err != nil {
		return errs.Wrap(err)
	}

	var entries []string
	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Name == "config" || flag.Name == "help" {
			return
		}
		value := flag.Value.String()
		if override, ok := overrides[flag.Name]; ok {
			value = fmt.Sprint(override)
		}
		// pflag renders string slices as [a,b]; the yaml value is a,b
		value = strings.TrimPrefix(strings.TrimSuffix(value, "]"), "[")

		var entry strings.Builder
		if flag.Usage != "" {
			fmt.Fprintf(&entry, "# %s\n", flag.Usage)
		}
		fmt.Fprintf(&entry, "%s: %q\n", flag.Name, value)
		entries = append(entries, entry.String())
	})
	sort.Strings(entries)

	return errs.Wrap(os.WriteFile(outfile, []byte(strings.Join(entries, "\n")), 0600))
}
