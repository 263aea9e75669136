// Package console implements the interactive entity query interpreter: it
// reads lines, assembles them into statements, classifies each statement and
// runs it against a data session.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/entconsole/internal/describe"
	"github.com/leapstack-labs/entconsole/internal/diag"
	"github.com/leapstack-labs/entconsole/internal/render"
	"github.com/leapstack-labs/entconsole/pkg/session"
)

// ErrIncompleteStatement is returned when input ends while a multiline
// statement is still waiting for its terminator.
var ErrIncompleteStatement = errors.New("input ended before the statement was terminated with ';'")

// InputError reports a failure of the line source itself.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("failed to read input: %v", e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// FatalError wraps a failure after which the session cannot be used, such
// as a lost database connection. Its diagnostic has already been printed.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error { return e.Err }

// Options configures a Controller.
type Options struct {
	// Formatter renders query results. Defaults to the record style.
	Formatter *render.Formatter

	// Logger defaults to discarding.
	Logger *slog.Logger
}

// Controller runs the read-evaluate-print loop for one console session. It
// owns the statement history and the multiline mode.
type Controller struct {
	sess      session.Session
	src       LineSource
	out       io.Writer
	formatter *render.Formatter
	errs      *diag.Translator
	describer *describe.Describer
	logger    *slog.Logger

	buf       StatementBuffer
	history   []string
	multiline bool
	running   bool
}

// NewController creates a controller reading statements from src and
// writing everything it prints to out.
func NewController(sess session.Session, src LineSource, out io.Writer, opts Options) *Controller {
	if opts.Formatter == nil {
		opts.Formatter = render.New(render.StyleRecord)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		sess:      sess,
		src:       src,
		out:       out,
		formatter: opts.Formatter,
		errs:      diag.New(out),
		describer: describe.New(out, sess.ListManagedTypes()),
		logger:    opts.Logger,
		multiline: true,
		running:   true,
	}
}

// History returns the statements submitted so far, oldest first.
func (c *Controller) History() []string {
	return append([]string(nil), c.history...)
}

// Multiline reports whether multiline mode is on.
func (c *Controller) Multiline() bool {
	return c.multiline
}

// Run reads and executes statements until quit, end of input, or a fatal
// failure. End of input in the middle of a multiline statement returns
// ErrIncompleteStatement; a failing line source returns an *InputError; a
// fatal session failure returns a *FatalError.
func (c *Controller) Run(ctx context.Context) error {
	for c.running {
		if p, ok := c.src.(Prompter); ok {
			if c.buf.Pending() {
				p.SetPrompt(ContinuationPrompt)
			} else {
				p.SetPrompt(PrimaryPrompt)
			}
		}

		line, err := c.src.ReadLine()
		switch {
		case errors.Is(err, ErrInterrupted):
			c.buf.Reset()
			continue
		case errors.Is(err, io.EOF):
			if c.buf.Pending() {
				return ErrIncompleteStatement
			}
			return nil
		case err != nil:
			return &InputError{Err: err}
		}

		stmt, ok := c.buf.Add(line, c.multiline)
		if !ok {
			continue
		}
		if err := c.Execute(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Execute classifies and runs one complete statement. Only fatal failures
// are returned; everything else is reported on the output.
func (c *Controller) Execute(ctx context.Context, stmt string) (err error) {
	cmd := Classify(stmt)
	if cmd.Text == "" {
		return nil
	}
	c.logger.Debug("executing statement", "kind", cmd.Kind, "text", cmd.Text)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("statement panicked", "text", cmd.Text, "panic", r)
			c.errs.Unexpected(r)
			err = nil
		}
	}()

	if err := c.dispatch(ctx, cmd); err != nil {
		if c.errs.Translate(err) == diag.Fatal {
			c.running = false
			return &FatalError{Err: err}
		}
	}
	return nil
}

func (c *Controller) dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case Help:
		printHelp(c.out)
	case Quit:
		c.running = false
	case RejectedInsert:
		c.println("You cannot do an insert from either the entity query language or as a native SQL query")
		c.println("")
	case ListLast:
		if len(c.history) == 0 {
			c.println("Buffer is empty")
		} else {
			c.println(c.history[len(c.history)-1])
		}
	case ShowHistory:
		if len(c.history) == 0 {
			c.println("Buffer is empty")
		}
		for _, h := range c.history {
			c.println(h)
		}
	case ClearHistory:
		c.history = c.history[:0]
	case SetMultiline:
		c.multiline = cmd.Enabled
		if cmd.Enabled {
			c.println("Multiline on")
		} else {
			c.println("Multiline off")
		}
	case Malformed:
		c.println(cmd.Reason)
	case Select:
		c.history = append(c.history, cmd.Text)
		return c.query(ctx, c.sess.ExecuteQuery, cmd.Query)
	case NativeSelect:
		c.history = append(c.history, cmd.Text)
		return c.query(ctx, c.sess.ExecuteNativeQuery, cmd.Query)
	case Mutation:
		c.history = append(c.history, cmd.Text)
		return c.mutate(ctx, cmd.Query)
	case DescribeEntity:
		c.describe(cmd.Name, cmd.IncludeAll)
	case ShowEntities:
		c.describer.ShowEntities(cmd.IncludePackage)
	case ShowNamedQueries:
		c.showNamedQueries(cmd.Filter)
	}
	return nil
}

func (c *Controller) query(ctx context.Context, exec func(context.Context, string) ([]any, error), text string) error {
	results, err := exec(ctx, text)
	if err != nil {
		return err
	}
	if err := c.formatter.Render(c.out, results); err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}
	c.println(fmt.Sprintf("%d results returned", len(results)))
	c.println("")
	return nil
}

// mutate runs an update or delete in its own transaction. The transaction
// is never left open: anything short of a successful commit rolls it back.
func (c *Controller) mutate(ctx context.Context, text string) error {
	defer func() {
		if !c.sess.IsTransactionActive() {
			return
		}
		if err := c.sess.Rollback(); err != nil {
			c.logger.Warn("rollback failed", "error", err)
		}
	}()

	if err := c.sess.Begin(ctx); err != nil {
		return err
	}
	n, err := c.sess.ExecuteUpdate(ctx, text)
	if err != nil {
		return err
	}
	if err := c.sess.Commit(); err != nil {
		return err
	}

	switch n {
	case 0:
		c.println("No entities affected")
	case 1:
		c.println("One entity affected")
	default:
		c.println(fmt.Sprintf("%d entities affected", n))
	}
	return nil
}

func (c *Controller) describe(name string, all bool) {
	err := c.describer.Describe(name, all)
	if err == nil {
		return
	}
	c.println(err.Error())
	var nf *describe.NotFoundError
	if errors.As(err, &nf) && nf.Hint() != "" {
		c.println(nf.Hint())
	}
}

func (c *Controller) showNamedQueries(filter string) {
	nq, ok := c.sess.(session.NamedQuerier)
	if !ok {
		c.println("Named queries are not supported by this session")
		return
	}

	queries := nq.ListNamedQueries()
	names := make([]string, 0, len(queries))
	for name := range queries {
		if strings.Contains(name, filter) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		c.println("No named queries found")
		return
	}
	sort.Strings(names)

	for _, name := range names {
		q := queries[name]
		c.println(name + " = " + q.Query)
		if q.SQL != "" {
			c.println(render.WrapSQL(q.SQL))
		}
		c.println("")
	}
}

func (c *Controller) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}
