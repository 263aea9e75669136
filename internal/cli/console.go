package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/entconsole/internal/cli/config"
	"github.com/leapstack-labs/entconsole/internal/console"
	"github.com/leapstack-labs/entconsole/internal/diag"
	"github.com/leapstack-labs/entconsole/internal/render"
	"github.com/leapstack-labs/entconsole/pkg/session"
)

// runConsole connects to the selected profile and runs the interpreter
// until quit, end of input, or a fatal failure.
func runConsole(cmd *cobra.Command, profileArg string) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := config.GetLogger(ctx).With("session_id", uuid.NewString())

	out := console.NewOutput(cmd.OutOrStdout(), cfg.LogFile, logger)
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("failed to close log file", "error", err)
		}
	}()

	fmt.Fprintf(out, "Entity Query Console - Version %s\n\n", Version)

	name, profile, err := cfg.SelectProfile(profileArg)
	if err != nil {
		return startupError("failed to select profile", err)
	}
	fmt.Fprintf(out, "Connection using %s ... \n", name)

	password, err := profile.ResolvePassword(name, config.OpenKeyring)
	if err != nil {
		return startupError("failed to resolve password", err)
	}

	var catalog *session.Catalog
	if profile.Manifest != "" {
		catalog, err = session.LoadManifest(profile.Manifest)
		if err != nil {
			return startupError("failed to load schema manifest", err)
		}
	} else {
		logger.Warn("profile has no manifest, only native queries can be resolved", "profile", name)
	}

	var monitor *session.Monitor
	var observer session.Observer
	switch {
	case cfg.ShowSQL:
		observer = &session.SQLEcho{W: out}
	case cfg.ProfileQueries:
		observer = &session.Profiler{W: out}
	case cfg.MonitorQueries:
		monitor = session.NewMonitor(logger)
		observer = monitor
	}

	sess, err := session.Open(ctx, session.Config{
		Driver:   profile.Driver,
		Database: profile.Database,
		Host:     profile.Host,
		Port:     profile.Port,
		User:     profile.User,
		Password: password,
		Schema:   profile.Schema,
		Options:  profile.Options,
		Catalog:  catalog,
		Observer: observer,
	}, logger)
	if err != nil {
		var ce *session.ConnectivityError
		if errors.As(err, &ce) {
			diag.New(out).Translate(err)
			return &console.FatalError{Err: err}
		}
		return startupError("failed to connect", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("failed to close session", "error", err)
		}
	}()

	fmt.Fprintf(out, "Persistence provider: %s\n\n", sess.ProviderName())

	src, closeSrc, err := lineSource(cmd, cfg, sess, logger)
	if err != nil {
		return startupError("failed to open terminal", err)
	}
	defer closeSrc()

	style, err := render.ParseStyle(cfg.Format)
	if err != nil {
		return startupError("invalid result format", err)
	}
	ctrl := console.NewController(sess, src, out, console.Options{
		Formatter: render.New(style),
		Logger:    logger,
	})
	runErr := ctrl.Run(ctx)

	if monitor != nil {
		monitor.Report(out)
	}
	fmt.Fprintf(out, "Disconnected from %s\n", name)
	return runErr
}

// lineSource reads from a line editor when stdin is a terminal and from
// plain lines otherwise.
func lineSource(cmd *cobra.Command, cfg *config.Config, sess session.Session, logger *slog.Logger) (console.LineSource, func(), error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		history := cfg.HistoryFile
		if history == "" {
			history = console.DefaultHistoryFile()
		}
		rl, err := console.NewReadlineSource(history, sess.ListManagedTypes())
		if err != nil {
			return nil, nil, err
		}
		return rl, func() {
			if err := rl.Close(); err != nil {
				logger.Debug("failed to close line editor", "error", err)
			}
		}, nil
	}
	return console.NewReaderSource(in), func() {}, nil
}
