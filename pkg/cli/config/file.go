package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// LoadFile reads a TOML config file into flag name/value pairs. Keys are flag
// names; nested tables are joined with "-", so [serpapi] api-key = "x" maps to
// --serpapi-api-key. Arrays become comma separated values.
func LoadFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}

	values := make(map[string]string)
	flatten("", doc, values)
	return values, nil
}

func flatten(prefix string, doc map[string]any, out map[string]string) {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "-" + k
		}

		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case []any:
			items := make([]string, 0, len(val))
			for _, item := range val {
				items = append(items, fmt.Sprint(item))
			}
			out[key] = strings.Join(items, ",")
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// ApplyFile sets flags of cmd that were not given on the command line or by
// environment from values. Keys for flags cmd does not define are left alone.
func ApplyFile(ctx context.Context, cmd *cli.Command, values map[string]string) error {
	defined := make(map[string]bool)
	for _, f := range cmd.Flags {
		for _, name := range f.Names() {
			defined[name] = true
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !defined[key] || cmd.IsSet(key) {
			continue
		}
		if err := cmd.Set(key, values[key]); err != nil {
			return goerr.Wrap(err, "invalid value in config file", goerr.V("key", key))
		}
		logging.From(ctx).Debug("Applied config file value", "key", key)
	}
	return nil
}
