package core

import (
	"context"

	"pkt.systems/montage/schema"
)

// MediaResolver resolves opaque media identifiers to immutable metadata.
// The engine treats the result as a read-only fact once attached to a clip.
type MediaResolver interface {
	Resolve(ctx context.Context, id schema.MediaID) (schema.MediaInfo, error)
}
