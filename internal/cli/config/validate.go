package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/entconsole/internal/render"
)

// ProfileError reports that no single profile could be chosen. Its message
// is printed to the user as-is.
type ProfileError struct {
	Message string
	Hint    string
}

func (e *ProfileError) Error() string {
	if e.Hint == "" {
		return e.Message
	}
	return e.Message + "\n" + e.Hint
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := render.ParseStyle(c.Format); err != nil {
		return err
	}

	modes := 0
	for _, on := range []bool{c.ShowSQL, c.ProfileQueries, c.MonitorQueries} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("only one of show_sql, profile_queries and monitor_queries may be enabled")
	}

	for name, p := range c.Profiles {
		if p == nil {
			return fmt.Errorf("profile %q is empty", name)
		}
		if p.Port < 0 || p.Port > 65535 {
			return fmt.Errorf("profile %q: invalid port %d", name, p.Port)
		}
	}
	return nil
}

// ProfileNames returns the configured profile names, sorted.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SelectProfile picks the profile to connect with: the named one when a name
// is given, then default_profile, then the only profile configured.
func (c *Config) SelectProfile(name string) (string, *Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name != "" {
		p, ok := c.Profiles[name]
		if !ok {
			return "", nil, &ProfileError{
				Message: fmt.Sprintf("Profile %s not found", name),
				Hint:    "Available profiles: " + strings.Join(c.ProfileNames(), ", "),
			}
		}
		return name, p, nil
	}

	switch names := c.ProfileNames(); len(names) {
	case 0:
		return "", nil, &ProfileError{
			Message: "No connection profile was found",
			Hint:    "Create an entconsole.yaml with a profiles section, or pass --config",
		}
	case 1:
		return names[0], c.Profiles[names[0]], nil
	default:
		var b strings.Builder
		b.WriteString("More than one profile was found:")
		for _, n := range names {
			b.WriteString("\n  " + n)
		}
		return "", nil, &ProfileError{
			Message: b.String(),
			Hint:    "Please run entconsole again followed with the name of the profile",
		}
	}
}
