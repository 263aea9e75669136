package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/entconsole/internal/cli/config"
)

// NewPasswordCommand creates the password command, which stores a profile
// password in the OS keyring for profiles that set password_keyring.
func NewPasswordCommand(open config.KeyringOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "password <profile>",
		Short: "Store a profile password in the OS keyring",
		Long: `Store the database password of a profile in the operating system keyring.

Profiles with password_keyring: true and no configured password read it
from the keyring at startup instead of from entconsole.yaml.`,
		Example: `  entconsole password prod`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := args[0]

			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), profile)
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("password is required")
			}

			ring, err := open()
			if err != nil {
				return fmt.Errorf("failed to open keyring: %w", err)
			}
			if err := config.StorePassword(ring, profile, password); err != nil {
				return fmt.Errorf("failed to store password: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Password for profile %s stored in the keyring\n", profile)
			return nil
		},
	}
}

// readPassword reads without echo from a terminal, or one line otherwise.
func readPassword(in io.Reader, prompt io.Writer, profile string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprintf(prompt, "Password for %s: ", profile)
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
