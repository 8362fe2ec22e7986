// Package storage treats the persisted store as an opaque asynchronous
// key-value store. The vault never assumes confidentiality from it: values
// are durable but readable by anyone with file access, and everything
// sensitive is encrypted before it gets here.
package storage

import "context"

// Well-known keys in the store.
const (
	KeyPinHash     = "pin_hash"
	KeySession     = "pin_session"
	KeyCredentials = "credentials"
	KeyEventLogs   = "event_logs"
	KeyInstallID   = "install_id"
)

// KV is the opaque store interface. Get returns (nil, nil) for an absent key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
