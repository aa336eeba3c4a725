package biodynamo

import (
	"fmt"
	"strconv"
	"strings"
)

// StateWriter is implemented by every core object that can contribute to a
// simulation-state dump (spec.md §6 "sim_state_to_json"). This is a test
// and debugging aid, never a persistence format: cyclic references (e.g. a
// cylinder's mother pointer) are omitted by design, not followed.
type StateWriter interface {
	WriteState(sb *StateBuilder)
}

// StateBuilder accumulates a deterministic JSON object tree. Field order is
// insertion order, which callers control by always writing fields in the
// same sequence — the determinism spec.md requires for golden comparisons
// comes from that discipline, not from sorting.
type StateBuilder struct {
	fields []string
}

// NewStateBuilder returns an empty builder.
func NewStateBuilder() *StateBuilder {
	return &StateBuilder{}
}

func (sb *StateBuilder) emit(key, rawValue string) {
	sb.fields = append(sb.fields, fmt.Sprintf("%q:%s", key, rawValue))
}

// String writes a string-valued field.
func (sb *StateBuilder) String(key, value string) {
	sb.emit(key, strconv.Quote(value))
}

// Float writes a float64-valued field.
func (sb *StateBuilder) Float(key string, value float64) {
	sb.emit(key, strconv.FormatFloat(value, 'g', -1, 64))
}

// Int writes an int-valued field.
func (sb *StateBuilder) Int(key string, value int) {
	sb.emit(key, strconv.Itoa(value))
}

// Bool writes a bool-valued field.
func (sb *StateBuilder) Bool(key string, value bool) {
	sb.emit(key, strconv.FormatBool(value))
}

// Vec3 writes a geom.Vec3-shaped field as a [x,y,z] array, without
// importing geom (callers pass the three components directly, keeping this
// package dependency-free of the geometry kernel).
func (sb *StateBuilder) Vec3(key string, x, y, z float64) {
	sb.emit(key, fmt.Sprintf("[%s,%s,%s]",
		strconv.FormatFloat(x, 'g', -1, 64),
		strconv.FormatFloat(y, 'g', -1, 64),
		strconv.FormatFloat(z, 'g', -1, 64)))
}

// Nested writes the result of a child StateWriter under key, recursing
// through a fresh sub-builder.
func (sb *StateBuilder) Nested(key string, child StateWriter) {
	if child == nil {
		sb.emit(key, "null")
		return
	}
	nestedBuilder := NewStateBuilder()
	child.WriteState(nestedBuilder)
	sb.emit(key, nestedBuilder.JSON())
}

// NestedList writes a list of child StateWriters under key, in the order
// given — callers are responsible for supplying that order deterministically
// (e.g. sorted by id) since the dump must be reproducible across runs.
func (sb *StateBuilder) NestedList(key string, children []StateWriter) {
	parts := make([]string, len(children))
	for i, c := range children {
		nestedBuilder := NewStateBuilder()
		if c != nil {
			c.WriteState(nestedBuilder)
		}
		parts[i] = nestedBuilder.JSON()
	}
	sb.emit(key, "["+strings.Join(parts, ",")+"]")
}

// JSON renders the accumulated fields as a single-line JSON object.
func (sb *StateBuilder) JSON() string {
	return "{" + strings.Join(sb.fields, ",") + "}"
}
