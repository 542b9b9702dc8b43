// Package storage provides the runtime artifact stores: small typed
// key-value persistence for deltas, triggers and dossier snapshots.
package storage

// KV is a typed key-value store. Values are encoded by the backend;
// callers pass the same concrete type to Set and Get.
type KV interface {
	// Set stores value under key, replacing any prior value.
	Set(key string, value interface{}) error
	// Get decodes the value for key into out and reports whether the
	// key was present.
	Get(key string, out interface{}) (bool, error)
	// Delete removes key; deleting an absent key is a no-op.
	Delete(key string) error
	Close() error
}
