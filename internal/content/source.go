package content

import "context"

// Source fetches content items from the host content system.
type Source interface {
	// Item returns a single content item. Returns a services.ErrNotFound
	// tagged error when the id no longer exists.
	Item(ctx context.Context, id int64) (*Item, error)
	// ListPublishedIDs pages through the ids of publicly visible items of
	// one content type, ordered by id.
	ListPublishedIDs(ctx context.Context, contentType string, limit, offset int) ([]int64, error)
}
