// Package pickup implements the pickup lifecycle: the legal transition
// table, the role-gated operations that move a pickup along it, and the
// events each committed transition emits.
//
// Every mutation is a read, a validation against the observed document, and
// a conditional write keyed on the status that was observed. If another
// writer got there first the conditional write matches nothing and the
// caller sees ErrNotFound; nothing is ever partially written.
package pickup
