package config

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// KeyringService is the service name passwords are stored under.
const KeyringService = "entconsole"

// KeyringOpener opens the keyring holding profile passwords.
type KeyringOpener func() (keyring.Keyring, error)

// OpenKeyring opens the operating system keyring.
func OpenKeyring() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName:              KeyringService,
		KeychainTrustApplication: true,
		PassPrefix:               KeyringService,
		WinCredPrefix:            KeyringService,
	})
}

// StorePassword saves a profile password in the keyring.
func StorePassword(ring keyring.Keyring, profile, password string) error {
	return ring.Set(keyring.Item{
		Key:         profile,
		Data:        []byte(password),
		Label:       "entconsole " + profile,
		Description: "entconsole profile password",
	})
}

// ResolvePassword returns the configured password, or the one stored in the
// keyring under the profile name when password_keyring is set.
func (p *Profile) ResolvePassword(name string, open KeyringOpener) (string, error) {
	if p.Password != "" || !p.PasswordKeyring {
		return p.Password, nil
	}
	if open == nil {
		open = OpenKeyring
	}
	ring, err := open()
	if err != nil {
		return "", fmt.Errorf("failed to open keyring: %w", err)
	}
	item, err := ring.Get(name)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("no password stored in the keyring for profile %s", name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return string(item.Data), nil
}
