package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/entconsole/pkg/session"
)

func usuario(codigo int64, nombre string) *session.Record {
	return &session.Record{
		Type: "Usuario",
		Fields: []session.Field{
			{Name: "codigo", Value: codigo},
			{Name: "nombre", Value: nombre},
			{Name: "direccion", Value: nil},
		},
	}
}

func TestFormatter_Write(t *testing.T) {
	date := time.Date(1984, 8, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "null", value: nil, want: "NULL\n"},
		{name: "string", value: "jose", want: "String:jose \n"},
		{name: "int64", value: int64(42), want: "Int64:42 \n"},
		{name: "float64", value: 1.5, want: "Float64:1.5 \n"},
		{name: "bool", value: true, want: "Bool:true \n"},
		{name: "time uses date layout", value: date, want: "Time:1984-08-15 \n"},
		{
			name:  "sequence recurses then blank line",
			value: []any{"jose", int64(1), nil},
			want:  "String:jose \nInt64:1 \nNULL\n\n",
		},
		{
			name:  "record",
			value: usuario(1, "jose"),
			want:  "Usuario[\n  codigo=1\n  nombre=jose\n  direccion=<null>\n]\n",
		},
		{
			name: "nested record and dates",
			value: &session.Record{Type: "Empleado", Fields: []session.Field{
				{Name: "alta", Value: date},
				{Name: "domicilio", Value: &session.Record{Type: "Domicilio", Fields: []session.Field{
					{Name: "calle", Value: "Mayor 1"},
					{Name: "ciudad", Value: "Madrid"},
				}}},
			}},
			want: "Empleado[\n  alta=1984-08-15\n  domicilio=Domicilio[calle=Mayor 1, ciudad=Madrid]\n]\n",
		},
	}

	f := New(StyleRecord)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f.Write(&buf, tt.value)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFormatter_RenderRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(StyleRecord).Render(&buf, []any{usuario(1, "jose"), usuario(2, "jaime")}))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "Usuario["))
	assert.Less(t, strings.Index(out, "nombre=jose"), strings.Index(out, "nombre=jaime"))
}

func TestFormatter_RenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(StyleTable).Render(&buf, []any{usuario(1, "jose"), usuario(2, "jaime")}))

	out := buf.String()
	assert.Contains(t, out, "CODIGO")
	assert.Contains(t, out, "jaime")
	assert.Contains(t, out, "NULL")

	buf.Reset()
	require.NoError(t, New(StyleTable).Render(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestFormatter_RenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(StyleJSON).Render(&buf, []any{usuario(1, "jose"), int64(3)}))
	assert.JSONEq(t, `[{"codigo":1,"nombre":"jose","direccion":null},3]`, buf.String())
}

func TestFormatter_RenderCSVAndMarkdown(t *testing.T) {
	results := []any{[]any{"a,b", int64(1)}, []any{"c", nil}}

	var buf bytes.Buffer
	require.NoError(t, New(StyleCSV).Render(&buf, results))
	assert.Equal(t, "col1,col2\n\"a,b\",1\nc,NULL\n", buf.String())

	buf.Reset()
	require.NoError(t, New(StyleMarkdown).Render(&buf, results))
	assert.Equal(t, "| col1 | col2 |\n| --- | --- |\n| a,b | 1 |\n| c | NULL |\n", buf.String())
}

func TestParseStyle(t *testing.T) {
	for _, name := range []string{"", "record", "TABLE", "json", "csv", "md", "markdown"} {
		_, err := ParseStyle(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseStyle("xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestWrapSQL(t *testing.T) {
	got := WrapSQL("SELECT u.codigo, u.nombre FROM usuario AS u WHERE u.nombre = 'jose' ORDER BY u.codigo")
	want := "\tSQL: SELECT u.codigo, u.nombre \n\tFROM usuario AS u \n\tWHERE u.nombre = 'jose' \n\tORDER BY u.codigo "
	assert.Equal(t, want, got)

	lower := WrapSQL("select a from t where b = 1")
	assert.Equal(t, "\tSQL: select a \n\tfrom t \n\twhere b = 1 ", lower)

	long := WrapSQL(strings.Repeat("column_name_x, ", 10))
	assert.Contains(t, long, "\n\t\t", "long select lists continue on an indented line")
}
