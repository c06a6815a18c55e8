// Package model provides the entity metadata consumed by the query pipeline.
//
// An EntityType maps a Go struct (or, for models loaded from CUE, a
// schemaless row) onto a table. Each Property carries its column name,
// nullability and the store type mapping resolved from a typemap.Registry.
//
// Models are built either from Go structs:
//
//	m := model.New(typemap.SQLServer())
//	people, err := m.Entity(Person{}, model.WithTable("People"))
//
// or from CUE files describing entities:
//
//	entity: Person: {
//	    table: "People"
//	    properties: {
//	        Id:   {type: "int"}
//	        Name: {type: "string", nullable: true}
//	    }
//	}
//
// Models are read-only once built and safe for concurrent use.
package model
