package rtreekit

// NodeRef is a stable index into a Tree's Arena. Nodes never move once
// allocated, so a NodeRef remains valid for the lifetime of the tree - this
// is the index-based "pointer" the design notes recommend in place of the
// teacher's raw *node fields.
type NodeRef int

// noChild marks a Link that carries an object id rather than a child node.
const noChild NodeRef = -1

// Link is the tagged union `{ child_node | object_id }` of spec section 3.
// The tag is implied by the depth of the owning entry from the root (an
// entry at height >= 2 holds a child, at height 1 an object id); the
// explicit child/isObject split below doubles as the debug-build assertion
// spec's design notes call for, at the cost of one extra field.
type Link struct {
	child  NodeRef
	object Id
}

// ChildLink creates a Link pointing at a child node.
func ChildLink(ref NodeRef) Link { return Link{child: ref, object: 0} }

// ObjectLink creates a Link pointing at a stored object id.
func ObjectLink(id Id) Link { return Link{child: noChild, object: id} }

// IsObject reports whether the link carries an object id rather than a
// child node reference.
func (l Link) IsObject() bool { return l.child == noChild }

// Child returns the referenced node. Panics if the link holds an object id.
func (l Link) Child() NodeRef {
	assertf(!l.IsObject(), "Link.Child called on an object link")
	return l.child
}

// Object returns the referenced object id. Panics if the link holds a
// child reference.
func (l Link) Object() Id {
	assertf(l.IsObject(), "Link.Object called on a child link")
	return l.object
}

// Entry is the (MBR, Link, plugin-state) triple of spec section 3. An entry
// is always the handle by which a node's parent refers to a child; the root
// is itself an entry held by the tree.
//
// Hilbert carries the plugin state of the Hilbert R-tree (the largest
// Hilbert value among the subtree's objects, or - for an object leaf entry
// - the Hilbert value of the object's own center). It is unused (zero) by
// every other variant. Carrying it directly on Entry rather than behind a
// generic Plugin type parameter keeps every node layout free of an extra
// type parameter for the four variants that never touch it.
type Entry[T Coordinate] struct {
	MBR     Mbr[T]
	Link    Link
	Hilbert uint64
}

// newObjectEntry wraps a stored object as a leaf entry with no Hilbert
// value set.
func newObjectEntry[T Coordinate](obj DataObject[T]) Entry[T] {
	return Entry[T]{MBR: NewMbr(obj.Box), Link: ObjectLink(obj.Id)}
}
