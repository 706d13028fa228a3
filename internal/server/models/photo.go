package models

// Photo is an image stored remotely and referenced by URL. PublicID is the
// storage backend identifier used for deletion; it may be empty for photos
// imported without one.
type Photo struct {
	ID       int64
	UserID   string
	URL      string
	PublicID string
	IsMain   bool
}
