package poststate

import "context"

// KeyValueStore is the durable, string-keyed store the state mirror is written to.
// It survives process restarts. Implementations live under internal/db.
type KeyValueStore interface {
	// ReadKey returns the stored value. found is false when the key has never
	// been written or was deleted.
	ReadKey(ctx context.Context, name string) (value string, found bool, err error)

	// WriteKey stores value under name, replacing any previous value
	WriteKey(ctx context.Context, name, value string) error

	// DeleteKey removes name. Deleting a missing key is not an error.
	DeleteKey(ctx context.Context, name string) error
}
