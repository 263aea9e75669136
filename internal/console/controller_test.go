package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/entconsole/internal/render"
	"github.com/leapstack-labs/entconsole/internal/testutil"
	"github.com/leapstack-labs/entconsole/pkg/session"
	"github.com/leapstack-labs/entconsole/pkg/sessions/sqlite"
)

// fakeSession records calls and returns canned results.
type fakeSession struct {
	types     []*session.EntityDescriptor
	results   []any
	queryErr  error
	affected  int64
	updateErr error
	commitErr error
	panicMsg  string

	active    bool
	begins    int
	commits   int
	rollbacks int
	queries   []string
	native    []string
	updates   []string
}

func (f *fakeSession) ExecuteQuery(_ context.Context, text string) ([]any, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.queries = append(f.queries, text)
	return f.results, f.queryErr
}

func (f *fakeSession) ExecuteNativeQuery(_ context.Context, text string) ([]any, error) {
	f.native = append(f.native, text)
	return f.results, f.queryErr
}

func (f *fakeSession) Begin(context.Context) error {
	if f.active {
		return session.ErrTransactionActive
	}
	f.begins++
	f.active = true
	return nil
}

func (f *fakeSession) Commit() error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits++
	f.active = false
	return nil
}

func (f *fakeSession) Rollback() error {
	f.rollbacks++
	f.active = false
	return nil
}

func (f *fakeSession) IsTransactionActive() bool { return f.active }

func (f *fakeSession) ExecuteUpdate(_ context.Context, text string) (int64, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.updates = append(f.updates, text)
	return f.affected, f.updateErr
}

func (f *fakeSession) ListManagedTypes() []*session.EntityDescriptor { return f.types }
func (f *fakeSession) ProviderName() string                          { return "fake" }
func (f *fakeSession) Close() error                                  { return nil }

type namedFakeSession struct {
	*fakeSession
	named map[string]session.NamedQuery
}

func (n *namedFakeSession) ListNamedQueries() map[string]session.NamedQuery { return n.named }

func newFake(t *testing.T) *fakeSession {
	t.Helper()
	cat, err := session.ParseManifest([]byte(testutil.SchemaManifest))
	require.NoError(t, err)
	return &fakeSession{types: cat.Types()}
}

// run feeds input through a controller and returns what it printed.
func run(t *testing.T, sess session.Session, input string) (string, *Controller, error) {
	t.Helper()
	var out bytes.Buffer
	c := NewController(sess, NewReaderSource(strings.NewReader(input)), &out, Options{Logger: testutil.NewTestLogger(t)})
	err := c.Run(context.Background())
	return out.String(), c, err
}

func TestController_History(t *testing.T) {
	fake := newFake(t)
	out, c, err := run(t, fake, strings.Join([]string{
		"list",
		"history",
		"select u from Usuario u;",
		"update Usuario u set u.nombre = 'x'",
		"help",
		"describe Usuario",
		"list",
		"history",
		"clear",
		"history",
	}, "\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "Buffer is empty\n"))
	assert.Contains(t, out, "update Usuario u set u.nombre = 'x'\nselect u from Usuario u\nupdate Usuario u set u.nombre = 'x'\n")
	assert.Empty(t, c.History())
}

func TestController_SelectCounts(t *testing.T) {
	tests := []struct {
		name    string
		results []any
		want    string
	}{
		{name: "none", results: []any{}, want: "0 results returned\n\n"},
		{name: "three", results: []any{"a", "b", nil}, want: "String:a \nString:b \nNULL\n3 results returned\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake(t)
			fake.results = tt.results
			out, c, err := run(t, fake, "select u.nombre from Usuario u;")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, []string{"select u.nombre from Usuario u"}, fake.queries)
			assert.Equal(t, []string{"select u.nombre from Usuario u"}, c.History())
		})
	}
}

func TestController_NativeSelect(t *testing.T) {
	fake := newFake(t)
	fake.results = []any{[]any{int64(1), "jose"}}
	out, c, err := run(t, fake, "sql SELECT codigo, nombre FROM usuario;")
	require.NoError(t, err)

	assert.Equal(t, []string{"SELECT codigo, nombre FROM usuario"}, fake.native)
	assert.Equal(t, []string{"sql SELECT codigo, nombre FROM usuario"}, c.History())
	assert.Equal(t, "Int64:1 \nString:jose \n\n1 results returned\n\n", out)
}

func TestController_Mutation(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     string
	}{
		{name: "none", affected: 0, want: "No entities affected\n"},
		{name: "one", affected: 1, want: "One entity affected\n"},
		{name: "many", affected: 5, want: "5 entities affected\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake(t)
			fake.affected = tt.affected
			out, _, err := run(t, fake, "delete from Usuario u")
			require.NoError(t, err)

			assert.Equal(t, tt.want, out)
			assert.Equal(t, 1, fake.begins)
			assert.Equal(t, 1, fake.commits)
			assert.Zero(t, fake.rollbacks)
			assert.False(t, fake.IsTransactionActive())
		})
	}
}

func TestController_MutationFailures(t *testing.T) {
	t.Run("update error rolls back before reporting", func(t *testing.T) {
		fake := newFake(t)
		fake.updateErr = &session.QueryError{Statement: "delete from Nada", Err: errors.New("Unknown entity type: Nada")}
		out, c, err := run(t, fake, "delete from Nada")
		require.NoError(t, err)

		assert.Equal(t, 1, fake.rollbacks)
		assert.Zero(t, fake.commits)
		assert.False(t, fake.IsTransactionActive())
		assert.Equal(t, "Unknown entity type: Nada\n"+
			"Possible misspelling of entity name.\n"+
			"Please make sure all entities are declared in the schema manifest.\n", out, "diagnostic is not preceded by a blank line")
		assert.Equal(t, []string{"delete from Nada"}, c.History(), "failed statements are still recorded")
	})

	t.Run("commit error rolls back", func(t *testing.T) {
		fake := newFake(t)
		fake.commitErr = errors.New("commit refused")
		out, _, err := run(t, fake, "update Usuario u set u.nombre = 'x'")
		require.NoError(t, err)

		assert.Equal(t, 1, fake.rollbacks)
		assert.False(t, fake.IsTransactionActive())
		assert.Contains(t, out, "commit refused")
		assert.NotContains(t, out, "affected")
	})

	t.Run("panic rolls back and continues", func(t *testing.T) {
		fake := newFake(t)
		fake.panicMsg = "provider exploded"
		out, _, err := run(t, fake, "update Usuario u set u.nombre = 'x'\nlist")
		require.NoError(t, err)

		assert.Equal(t, 1, fake.rollbacks)
		assert.False(t, fake.IsTransactionActive())
		assert.Contains(t, out, "provider exploded\nreceived an unexpected or internal provider exception\n")
		assert.True(t, strings.HasSuffix(out, "update Usuario u set u.nombre = 'x'\n"), "loop continues after a panic")
	})
}

func TestController_RejectedInsert(t *testing.T) {
	fake := newFake(t)
	out, c, err := run(t, fake, "insert into Usuario values (1);\nSQL INSERT into usuario values (1);")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "You cannot do an insert"))
	assert.Empty(t, c.History())
	assert.Zero(t, fake.begins)
	assert.Empty(t, fake.native)
}

func TestController_Multiline(t *testing.T) {
	fake := newFake(t)
	out, c, err := run(t, fake, strings.Join([]string{
		"multiline off",
		"select u from Usuario u",
		"multiline maybe",
		"multiline on",
		"select u",
		"from Usuario u;",
	}, "\n"))
	require.NoError(t, err)

	assert.Contains(t, out, "Multiline off\n")
	assert.Contains(t, out, "Wrong argument specified\n")
	assert.Contains(t, out, "Multiline on\n")
	assert.True(t, c.Multiline())
	assert.Equal(t, []string{"select u from Usuario u", "select u from Usuario u"}, fake.queries)
}

func TestController_Quit(t *testing.T) {
	fake := newFake(t)
	_, c, err := run(t, fake, "quit\nselect u from Usuario u;")
	require.NoError(t, err)
	assert.Empty(t, fake.queries, "nothing runs after quit")
	assert.Empty(t, c.History())
}

func TestController_IncompleteStatement(t *testing.T) {
	fake := newFake(t)
	_, _, err := run(t, fake, "select u\nfrom Usuario u")
	assert.ErrorIs(t, err, ErrIncompleteStatement)
	assert.Empty(t, fake.queries)
}

type failingSource struct{}

func (failingSource) ReadLine() (string, error) { return "", errors.New("terminal gone") }

type scriptedSource struct {
	lines   []string
	errs    []error
	prompts []string
}

func (s *scriptedSource) ReadLine() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line, err := s.lines[0], s.errs[0]
	s.lines, s.errs = s.lines[1:], s.errs[1:]
	return line, err
}

func (s *scriptedSource) SetPrompt(p string) { s.prompts = append(s.prompts, p) }

func TestController_InputFailures(t *testing.T) {
	t.Run("read error", func(t *testing.T) {
		c := NewController(newFake(t), failingSource{}, io.Discard, Options{})
		err := c.Run(context.Background())

		var ie *InputError
		require.True(t, errors.As(err, &ie))
		assert.EqualError(t, err, "failed to read input: terminal gone")
	})

	t.Run("interrupt discards the partial statement", func(t *testing.T) {
		fake := newFake(t)
		src := &scriptedSource{
			lines: []string{"select u", "", "select 1 from Usuario u;"},
			errs:  []error{nil, ErrInterrupted, nil},
		}
		c := NewController(fake, src, io.Discard, Options{})
		require.NoError(t, c.Run(context.Background()))

		assert.Equal(t, []string{"select 1 from Usuario u"}, fake.queries)
		assert.Equal(t, []string{PrimaryPrompt, ContinuationPrompt, PrimaryPrompt, PrimaryPrompt}, src.prompts)
	})
}

func TestController_ConnectivityIsFatal(t *testing.T) {
	fake := newFake(t)
	fake.queryErr = &session.ConnectivityError{Code: "08006", Message: "connection lost"}
	out, c, err := run(t, fake, "select u from Usuario u;\nlist")

	var fe *FatalError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, out, "Database Error\nErrorCode: 08006\nconnection lost\n")
	assert.NotContains(t, out, "select u from Usuario u\n", "loop stops before list")
	assert.Equal(t, []string{"select u from Usuario u"}, c.History())
}

func TestController_Describe(t *testing.T) {
	fake := newFake(t)
	out, _, err := run(t, fake, "describe Usuari\ndescribe\nshow entities")
	require.NoError(t, err)

	assert.Contains(t, out, "Entity Usuari not found\nDid you mean: Usuario?\n")
	assert.Contains(t, out, "No arguments specified\n")
	assert.Contains(t, out, "Empleado.domicilio (@Embedded)\n")
}

func TestController_NamedQueries(t *testing.T) {
	t.Run("unsupported", func(t *testing.T) {
		out, _, err := run(t, newFake(t), "show queries")
		require.NoError(t, err)
		assert.Equal(t, "Named queries are not supported by this session\n", out)
	})

	t.Run("sorted and filtered", func(t *testing.T) {
		sess := &namedFakeSession{fakeSession: newFake(t), named: map[string]session.NamedQuery{
			"Usuario.findAll": {Name: "Usuario.findAll", Query: "select u from Usuario u", SQL: "select u.codigo from usuario AS u"},
			"Empleado.all":    {Name: "Empleado.all", Query: "select e from Empleado e"},
			"Usuario.byId":    {Name: "Usuario.byId", Query: "select u from Usuario u where u.codigo = :id"},
		}}

		out, _, err := run(t, sess, "show queries for 'Usuario'")
		require.NoError(t, err)
		want := "Usuario.byId = select u from Usuario u where u.codigo = :id\n\n" +
			"Usuario.findAll = select u from Usuario u\n" +
			"\tSQL: select u.codigo \n\tfrom usuario AS u \n\n"
		assert.Equal(t, want, out)

		out, _, err = run(t, sess, "show queries for Cliente")
		require.NoError(t, err)
		assert.Equal(t, "No named queries found\n", out)
	})
}

func TestController_TableStyle(t *testing.T) {
	fake := newFake(t)
	fake.results = []any{&session.Record{Type: "Usuario", Fields: []session.Field{{Name: "nombre", Value: "jose"}}}}

	var out bytes.Buffer
	c := NewController(fake, NewReaderSource(strings.NewReader("select u from Usuario u;")), &out, Options{Formatter: render.New(render.StyleTable)})
	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, strings.ToLower(out.String()), "nombre")
	assert.Contains(t, out.String(), "jose")
	assert.True(t, strings.HasSuffix(out.String(), "1 results returned\n\n"))
}

func TestController_SQLiteEndToEnd(t *testing.T) {
	cat, err := session.ParseManifest([]byte(testutil.SchemaManifest))
	require.NoError(t, err)
	sess := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, sess.Connect(context.Background(), session.Config{Driver: "sqlite", Catalog: cat}))
	t.Cleanup(func() { _ = sess.Close() })

	_, err = sess.DB.Exec(testutil.SchemaDDL)
	require.NoError(t, err)
	_, err = sess.DB.Exec(`
		INSERT INTO usuario (codigo, num_documento, nombre, direccion) VALUES (1, '111', 'jose', 'Calle 1');
		INSERT INTO usuario (codigo, num_documento, nombre, direccion) VALUES (2, '222', 'jaime', NULL);
	`)
	require.NoError(t, err)

	out, c, err := run(t, sess, strings.Join([]string{
		"select u from Usuario u",
		"order by u.codigo;",
		"update Usuario u set u.direccion = 'Calle 2' where u.codigo = 99",
		"describe Usuario",
		"select u.edad from Usuario u;",
		"show queries for findAll",
	}, "\n"))
	require.NoError(t, err)

	records := "Usuario[\n  codigo=1\n  numDocumento=111\n  nombre=jose\n  direccion=Calle 1\n]\n" +
		"Usuario[\n  codigo=2\n  numDocumento=222\n  nombre=jaime\n  direccion=<null>\n]\n" +
		"2 results returned\n\n"
	assert.Contains(t, out, records)
	assert.Contains(t, out, "No entities affected\n")
	assert.Contains(t, out, "Fields:\n  private Long codigo\n  private String numDocumento\n  private String nombre\n  private String direccion\n")
	assert.Contains(t, out, "the state field path [u.edad] cannot be resolved to a valid type")
	assert.Contains(t, out, "Usuario.findAll = select u from Usuario u\n\tSQL: ")
	assert.False(t, sess.IsTransactionActive())
	assert.Len(t, c.History(), 3)
}
