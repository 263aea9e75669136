package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/entconsole/internal/testutil"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := ParseManifest([]byte(testutil.SchemaManifest))
	require.NoError(t, err)
	return cat
}

func TestTranslate(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name       string
		query      string
		wantSQL    string
		projection string
	}{
		{
			name:       "entity projection",
			query:      "select u from Usuario u",
			wantSQL:    "select u.codigo, u.num_documento, u.nombre, u.direccion from usuario AS u",
			projection: "Usuario",
		},
		{
			name:       "entity projection with AS and distinct",
			query:      "SELECT DISTINCT u FROM Usuario AS u",
			wantSQL:    "SELECT DISTINCT u.codigo, u.num_documento, u.nombre, u.direccion FROM usuario AS u",
			projection: "Usuario",
		},
		{
			name:    "attribute paths map to columns",
			query:   "select u.nombre from Usuario u where u.numDocumento = '1'",
			wantSQL: "select u.nombre from usuario AS u where u.num_documento = '1'",
		},
		{
			name:       "inherited and embedded attributes",
			query:      "select e from Empleado e where e.domicilio.ciudad = 'Madrid'",
			wantSQL:    "select e.salario, e.calle, e.ciudad, e.id, e.nombre from empleado AS e where e.ciudad = 'Madrid'",
			projection: "Empleado",
		},
		{
			name:    "identification variable outside projection uses id",
			query:   "select count(u) from Usuario u",
			wantSQL: "select count(u.codigo) from usuario AS u",
		},
		{
			name:    "update assignment targets are unqualified",
			query:   "update Usuario u set u.nombre = 'x' where u.codigo = 1",
			wantSQL: "update usuario AS u set nombre = 'x' where u.codigo = 1",
		},
		{
			name:    "unaliased range resolves bare attributes",
			query:   "update Usuario set numDocumento = '9'",
			wantSQL: "update usuario set num_documento = '9'",
		},
		{
			name:    "delete",
			query:   "delete from Usuario u where u.nombre like 'j%'",
			wantSQL: "delete from usuario AS u where u.nombre like 'j%'",
		},
		{
			name:    "string literals are untouched",
			query:   "select u.nombre from Usuario u where u.direccion = 'u.nombre from Usuario'",
			wantSQL: "select u.nombre from usuario AS u where u.direccion = 'u.nombre from Usuario'",
		},
		{
			name:    "comma separated ranges",
			query:   "select u.nombre, e.salario from Usuario u, Empleado e where u.nombre = e.nombre",
			wantSQL: "select u.nombre, e.salario from usuario AS u, empleado AS e where u.nombre = e.nombre",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := translate(tt.query, cat)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, tr.SQL)
			if tt.projection == "" {
				assert.Nil(t, tr.Projection)
			} else {
				require.NotNil(t, tr.Projection)
				assert.Equal(t, tt.projection, tr.Projection.entity.Name)
			}
		})
	}
}

func TestTranslate_Errors(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name    string
		query   string
		wantMsg string
	}{
		{
			name:    "unknown entity",
			query:   "select c from Cliente c",
			wantMsg: "Unknown entity type: Cliente",
		},
		{
			name:    "mapped superclass is not queryable",
			query:   "select p from Persona p",
			wantMsg: "Unknown entity type: Persona",
		},
		{
			name:    "unknown attribute",
			query:   "select u.edad from Usuario u",
			wantMsg: "Exception Description: Problem compiling [select u.edad from Usuario u], column 8: the state field path [u.edad] cannot be resolved to a valid type",
		},
		{
			name:    "collection is not a state field",
			query:   "select e.proyectos from Empleado e",
			wantMsg: "column 8: the state field path [e.proyectos]",
		},
		{
			name:    "bad leading keyword",
			query:   "selec u from Usuario u",
			wantMsg: "Exception Description: Syntax error parsing [selec u from Usuario u], column 1: unexpected token [selec]",
		},
		{
			name:    "unterminated string",
			query:   "select u from Usuario u where u.nombre = 'abc",
			wantMsg: "column 42: the string literal is not terminated",
		},
		{
			name:    "AS without alias",
			query:   "select count(*) from Usuario as",
			wantMsg: "an identification variable must follow AS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := translate(tt.query, cat)
			require.Error(t, err)

			var qe *QueryError
			require.True(t, errors.As(err, &qe), "want *QueryError, got %T", err)
			assert.Equal(t, tt.query, qe.Statement)
			assert.Zero(t, qe.Column)
			assert.Contains(t, errors.Unwrap(err).Error(), tt.wantMsg)
		})
	}
}

func TestProjection_Record(t *testing.T) {
	cat := testCatalog(t)
	tr, err := translate("select e from Empleado e", cat)
	require.NoError(t, err)
	require.NotNil(t, tr.Projection)
	assert.Equal(t, 5, tr.Projection.width())

	rec, rest := tr.Projection.record([]any{1500.5, "Mayor 1", "Madrid", int64(7), "ana"})
	assert.Empty(t, rest)
	assert.Equal(t, "Empleado", rec.Type)

	dom, ok := rec.Get("domicilio")
	require.True(t, ok)
	nested, ok := dom.(*Record)
	require.True(t, ok)
	assert.Equal(t, "Domicilio", nested.Type)
	ciudad, _ := nested.Get("ciudad")
	assert.Equal(t, "Madrid", ciudad)

	nombre, _ := rec.Get("nombre")
	assert.Equal(t, "ana", nombre)
}
