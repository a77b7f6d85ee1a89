package schema

// Operation names for registry lookups.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
)

// Registry holds the static schemas for every entity type and operation.
type Registry struct {
	byKey map[string]Schema
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Schema)}
}

// Register adds a schema for an entity type and operation.
func (r *Registry) Register(entityType, operation string, s Schema) {
	r.byKey[entityType+"/"+operation] = s
}

// Lookup returns the schema for an entity type and operation.
func (r *Registry) Lookup(entityType, operation string) (Schema, bool) {
	s, ok := r.byKey[entityType+"/"+operation]
	return s, ok
}

// Len returns the number of registered (type, operation) pairs.
func (r *Registry) Len() int {
	return len(r.byKey)
}

// DefaultRegistry returns a registry preloaded with every entity family
// the reservation system persists.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("protectedArea", OperationCreate, ProtectedAreaCreate)
	r.Register("protectedArea", OperationUpdate, ProtectedAreaUpdate)
	r.Register("activity", OperationCreate, ActivityCreate)
	r.Register("activity", OperationUpdate, ActivityUpdate)
	r.Register("facility", OperationCreate, FacilityCreate)
	r.Register("facility", OperationUpdate, FacilityUpdate)
	r.Register("geozone", OperationCreate, GeozoneCreate)
	r.Register("geozone", OperationUpdate, GeozoneUpdate)
	r.Register("booking", OperationCreate, BookingCreate)
	r.Register("booking", OperationUpdate, BookingUpdate)
	r.Register("transaction", OperationCreate, TransactionCreate)
	r.Register("transaction", OperationUpdate, TransactionUpdate)
	r.Register("policy", OperationCreate, PolicyCreate)
	r.Register("policy", OperationUpdate, PolicyUpdate)
	return r
}
