package domain

// Object is a node of the object graph owned by the heap/loader. The core only
// reads and writes its identity and liveness-relevant fields.
type Object struct {
	ID         ObjectID
	ClassID    ClassID
	Persistent bool
	Loaded     bool
	// OwnerHint is the last known owning node and may be stale.
	OwnerHint *NodeID
	Fields    map[string]string
	Refs      []*Object
}

func (o *Object) HasID() bool {
	return o != nil && !o.ID.IsZero()
}
