package object

import "context"

// StoredObject describes a durably stored document.
type StoredObject struct {
	// URL is a fetchable location for the object. For the S3 store this is a
	// virtual-hosted https URL; for the local store it is an absolute path.
	URL    string
	Bucket string
	Key    string
}

// ObjectStore uploads a locally staged file to durable storage under a
// collision-resistant key.
type ObjectStore interface {
	Upload(ctx context.Context, localPath string, fileName string) (StoredObject, error)
}
