// Package calcservice owns the calculator's tool table: the typed tool
// constructors, the JSON-schema reflection that derives each tool's input
// schema from its argument struct, and the batch evaluation semantics used
// by tools/call. The table is built once at startup and never mutated.
package calcservice
