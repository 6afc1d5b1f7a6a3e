// Package state keeps the last committed page snapshots per viewer.
//
// Each (viewer, resource) pair has a monotonically increasing sequence and at
// most one committed entry. A reload takes a sequence number before it
// fetches; committing with RequireNewer refuses entries older than what is
// already stored, which is how a slow reload is kept from overwriting a
// newer one.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("state: not found")

type Resource string

const (
	ResourceCatalog Resource = "catalog"
	ResourceCart    Resource = "cart"
	// ResourceEvents only ever uses Next; it numbers published activity and
	// is exempt from expiry.
	ResourceEvents  Resource = "events"
)

// durable reports whether the resource's sequence must survive idle expiry.
func (r Resource) durable() bool { return r == ResourceEvents }

type Entry struct {
	Seq     int64           `json:"seq"`
	Data    json.RawMessage `json:"data"`
	SavedAt time.Time       `json:"savedAt"`
}

type CommitMode int

const (
	// Overwrite stores the entry unconditionally: last writer wins.
	Overwrite CommitMode = iota
	// RequireNewer stores the entry only if its Seq is above the stored one.
	RequireNewer
)

type Repository interface {
	Next(ctx context.Context, viewerID string, res Resource) (int64, error)
	Commit(ctx context.Context, viewerID string, res Resource, e Entry, mode CommitMode) (bool, error)
	Load(ctx context.Context, viewerID string, res Resource) (Entry, error)
	// Reset forgets committed entries, e.g. when the signed-in identity
	// behind a viewer changes.
	Reset(ctx context.Context, viewerID string, res ...Resource) error
}

func key(viewerID string, res Resource) string {
	return viewerID + ":" + string(res)
}

func accepts(mode CommitMode, stored *Entry, incoming Entry) bool {
	if mode == Overwrite || stored == nil {
		return true
	}
	return incoming.Seq > stored.Seq
}
