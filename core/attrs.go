package core

// FileAttributes is a bitmask over the small, fixed set of per-file
// attributes a fetch can request. The algebra below is total and
// side-effect-free.
type FileAttributes uint8

const (
	// AttrNone is the empty attribute set.
	AttrNone FileAttributes = 0
	// AttrContent is the file's bytes, with or without a copy-from header.
	AttrContent FileAttributes = 1 << 0
	// AttrAuxData is derived metadata, currently the content SHA-256.
	AttrAuxData FileAttributes = 1 << 1
)

// attrAll is the union of every defined attribute, used to implement
// complement within the declared universe.
const attrAll = AttrContent | AttrAuxData

// Union returns the set union (A ∪ B).
func (a FileAttributes) Union(b FileAttributes) FileAttributes {
	return a | b
}

// Intersect returns the set intersection (A ∩ B).
func (a FileAttributes) Intersect(b FileAttributes) FileAttributes {
	return a & b
}

// Complement returns the set complement within the declared universe (¬A).
func (a FileAttributes) Complement() FileAttributes {
	return ^a & attrAll
}

// Difference returns the set difference A ∖ B = A ∩ ¬B.
func (a FileAttributes) Difference(b FileAttributes) FileAttributes {
	return a.Intersect(b.Complement())
}

// Has reports whether every attribute in the required set is present:
// has(A) ≡ (A ∖ self).none().
func (a FileAttributes) Has(required FileAttributes) bool {
	return required.Difference(a).None()
}

// None reports whether the set is empty.
func (a FileAttributes) None() bool {
	return a == AttrNone
}

// Any reports whether the set is non-empty: any() ≡ ¬none().
func (a FileAttributes) Any() bool {
	return !a.None()
}

// All reports whether every defined attribute is present: all() ≡ ¬self == NONE.
func (a FileAttributes) All() bool {
	return a.Complement() == AttrNone
}

// WithComputable closes the set under the current derivation rules: content
// implies aux_data is derivable from it. Keep this data-driven (a single
// mapping expression) so new derivations can be added without touching the
// orchestrator.
func (a FileAttributes) WithComputable() FileAttributes {
	if a.Intersect(AttrContent).Any() {
		return a.Union(AttrAuxData)
	}
	return a
}
