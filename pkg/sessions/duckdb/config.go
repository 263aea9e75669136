package duckdb

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from session.Config.Options using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "json", "icu")
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`

	// ReadOnly opens the database file without write access.
	ReadOnly bool `mapstructure:"read_only"`
}

// ParseParams decodes driver options into Params.
func ParseParams(options map[string]any) (*Params, error) {
	p := &Params{}
	if len(options) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(options); err != nil {
		return nil, fmt.Errorf("invalid duckdb options: %w", err)
	}
	return p, nil
}

// statements returns the setup statements for these params: extension
// installs first, then settings in key order.
func (p *Params) statements() []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, fmt.Sprintf("INSTALL %s", ext), fmt.Sprintf("LOAD %s", ext))
	}
	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", k, p.Settings[k]))
	}
	return stmts
}

// dsn returns the driver data source name for path.
func (p *Params) dsn(path string) string {
	if p.ReadOnly && path != "" {
		return path + "?access_mode=READ_ONLY"
	}
	return path
}
