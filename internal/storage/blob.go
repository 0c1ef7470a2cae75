package storage

import "io"

// BlobStore holds uploaded authoring assets (images, video posters,
// downloadable exercise files) referenced by content blocks.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	PublicURL(key string) (string, error) // path the gateway serves the asset at
}
