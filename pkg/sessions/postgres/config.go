package postgres

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds PostgreSQL-specific configuration.
// Parsed from session.Config.Options using mapstructure.
type Params struct {
	// SSLMode is passed through as sslmode (default "disable").
	SSLMode string `mapstructure:"sslmode"`

	// SearchPath overrides the schema search path. Defaults to the
	// profile's schema when set.
	SearchPath string `mapstructure:"search_path"`

	// ConnectTimeout in seconds; 0 keeps the driver default.
	ConnectTimeout int `mapstructure:"connect_timeout"`

	// ApplicationName is reported to the server.
	ApplicationName string `mapstructure:"application_name"`
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
		return nil, fmt.Errorf("invalid postgres options: %w", err)
	}
	return p, nil
}
