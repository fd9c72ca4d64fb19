// Package schema defines the typed records for every bus topic and the
// field/range rules enforced at the validation gate.
//
// The bus itself never inspects payloads; producers publish typed records
// from this package and the gate (package gate) rejects anything that fails
// the declared constraints before it reaches a topic.
package schema
