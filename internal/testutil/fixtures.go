package testutil

// SchemaManifest declares the entity model used across package tests:
// a plain entity, a mapped superclass with a subclass entity, and an
// embeddable value.
const SchemaManifest = `
namespace: com.example.model
types:
  - name: Usuario
    modifiers: [public]
    table: usuario
    annotations:
      - "@javax.persistence.Entity()"
      - "@javax.persistence.Table(name=usuario)"
      - "@javax.persistence.NamedQueries(value=[@javax.persistence.NamedQuery(name=Usuario.findAll, query=select u from Usuario u)])"
    attributes:
      - name: codigo
        type: java.lang.Long
        modifiers: [private]
        annotations: ["@javax.persistence.Id()"]
      - name: numDocumento
        type: java.lang.String
        column: num_documento
        modifiers: [private]
        annotations: ["@javax.validation.constraints.NotNull()"]
      - name: nombre
        type: java.lang.String
        modifiers: [private]
      - name: direccion
        type: java.lang.String
        modifiers: [private]
    operations:
      - name: Usuario
        constructor: true
        modifiers: [public]
      - name: getNombre
        modifiers: [public]
      - name: setNombre
        modifiers: [public]
        params: [java.lang.String]
    named_queries:
      - name: Usuario.findAll
        query: select u from Usuario u
      - name: Usuario.findByNombre
        query: select u from Usuario u where u.nombre = :nombre

  - name: Persona
    kind: mapped_superclass
    modifiers: [public, abstract]
    annotations: ["@javax.persistence.MappedSuperclass()"]
    attributes:
      - name: id
        type: java.lang.Long
        modifiers: [protected]
        annotations: ["@javax.persistence.Id()"]
      - name: nombre
        type: java.lang.String
        modifiers: [protected]
    operations:
      - name: getId
        modifiers: [public]

  - name: Empleado
    modifiers: [public]
    supertype: Persona
    table: empleado
    annotations: ["@javax.persistence.Entity()"]
    attributes:
      - name: salario
        type: java.math.BigDecimal
        modifiers: [private]
      - name: domicilio
        type: com.example.model.Domicilio
        kind: embedded
        modifiers: [private]
        annotations: ["@javax.persistence.Embedded()"]
      - name: proyectos
        type: java.util.List
        kind: collection
        modifiers: [private]
        annotations: ["@javax.persistence.OneToMany()"]
    named_queries:
      - name: Empleado.byCiudad
        query: select e from Empleado e where e.domicilio.ciudad = 'Madrid' order by e.nombre

  - name: Domicilio
    kind: embeddable
    modifiers: [public]
    annotations: ["@javax.persistence.Embeddable()"]
    attributes:
      - name: calle
        type: java.lang.String
        modifiers: [private]
      - name: ciudad
        type: java.lang.String
        modifiers: [private]
`

// SchemaDDL creates the tables backing SchemaManifest.
const SchemaDDL = `
CREATE TABLE usuario (
	codigo INTEGER PRIMARY KEY,
	num_documento TEXT NOT NULL,
	nombre TEXT,
	direccion TEXT
);
CREATE TABLE empleado (
	id INTEGER PRIMARY KEY,
	nombre TEXT,
	salario REAL,
	calle TEXT,
	ciudad TEXT
);
`
