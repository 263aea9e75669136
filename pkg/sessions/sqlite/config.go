package sqlite

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds SQLite-specific configuration.
// Parsed from session.Config.Options using mapstructure.
type Params struct {
	// Pragmas are applied after connecting (e.g., journal_mode: wal).
	Pragmas map[string]string `mapstructure:"pragmas"`

	// BusyTimeout in milliseconds; 0 keeps the driver default.
	BusyTimeout int `mapstructure:"busy_timeout"`

	// ForeignKeys enables foreign key enforcement (default true).
	ForeignKeys *bool `mapstructure:"foreign_keys"`
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
		return nil, fmt.Errorf("invalid sqlite options: %w", err)
	}
	return p, nil
}

// statements returns the PRAGMA statements for these params, in a stable
// order.
func (p *Params) statements() []string {
	fk := p.ForeignKeys == nil || *p.ForeignKeys
	stmts := []string{fmt.Sprintf("PRAGMA foreign_keys = %s", onOff(fk))}
	if p.BusyTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("PRAGMA busy_timeout = %d", p.BusyTimeout))
	}
	for _, k := range sortedKeys(p.Pragmas) {
		stmts = append(stmts, fmt.Sprintf("PRAGMA %s = %s", k, p.Pragmas[k]))
	}
	return stmts
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
