package storage

import "fmt"

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

/*
Storage persists run artifacts under hierarchical names like
"2026-08-25_14-03-59/enhanced.jpg". Save returns the full location the
artifact landed at: a filesystem path for local storage, an s3:// URL for
the bucket backend.
*/
type Storage interface {
	Save(name string, data []byte) (location string, err error)
	Get(name string) (data []byte, err error)
	Delete(name string) error
}

/*
ForBackend builds the Storage selected by the configuration. An empty
backend name means local.
*/
func ForBackend(backend string, localBasePath string, s3Bucket string, s3KeyPrefix string) (Storage, error) {
	switch backend {
	case "", BackendLocal:
		return NewLocalStorage(localBasePath)
	case BackendS3:
		return NewS3Storage(s3Bucket, s3KeyPrefix)
	}

	return nil, fmt.Errorf("unknown storage backend '%s'", backend)
}
