// Package schema is a small runtime type system used to validate loosely typed
// values: checker inputs resolved from execution state, and profile documents
// before they are persisted.
//
// Types are built programmatically or parsed from short type strings:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "login":    "string",
//	    "attempts": "int",
//	    "tags":     "[string]",
//	    "cookies":  "map?",
//	})
//
// A trailing "?" marks a field as optional. Values decoded from JSON are
// accepted as their natural Go type: whole float64 and json.Number values
// pass as int.
package schema
