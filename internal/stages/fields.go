package stages

import "github.com/dusk-indust/chartflow/internal/schema"

// Field constructors. Every top-level key of a stage output is required to
// be present; optional values are expressed as nullable.

func reqString(name string, allowed ...string) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeString, Required: true, Allowed: allowed}
}

func nullString(name string, allowed ...string) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeString, Required: true, Nullable: true, Allowed: allowed}
}

func nullNumber(name string) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeNumber, Required: true, Nullable: true}
}

func reqInteger(name string) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeInteger, Required: true}
}

func nullInteger(name string) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeInteger, Required: true, Nullable: true}
}

func reqBool(name string) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeBool, Required: true}
}

func nullBool(name string) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeBool, Required: true, Nullable: true}
}

func list(name string, items schema.Field) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeArray, Required: true, Items: &items}
}

func nullList(name string, items schema.Field) schema.Field {
	f := list(name, items)
	f.Nullable = true
	return f
}

func nullObject(name string, fields ...schema.Field) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeObject, Required: true, Nullable: true, Fields: fields}
}

func item(fields ...schema.Field) schema.Field {
	return schema.Field{Type: schema.TypeObject, Fields: fields}
}

func stringItem() schema.Field {
	return schema.Field{Type: schema.TypeString}
}

func notes() schema.Field {
	return nullString("notes")
}
