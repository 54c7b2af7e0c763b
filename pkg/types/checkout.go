package types

// ShortRevisionLength is the number of hex characters kept in checkout
// directory names
const ShortRevisionLength = 6

// Checkout is a repository materialized on local disk at a resolved revision
type Checkout struct {
	// Name is the overlay name the checkout was made for
	Name string `json:"name"`

	// Repository is the locator that was cloned
	Repository string `json:"repository"`

	// Version is the requested ref (branch, tag or commit)
	Version string `json:"version"`

	// Revision is the full commit the ref resolved to
	Revision string `json:"revision"`

	// Dir is the checkout directory, named {name}-{short revision}
	Dir string `json:"dir"`
}

// ShortRevision returns the abbreviated revision used in directory names
func (c Checkout) ShortRevision() string {
	return ShortRevision(c.Revision)
}

// ShortRevision truncates a revision to ShortRevisionLength characters
func ShortRevision(revision string) string {
	if len(revision) <= ShortRevisionLength {
		return revision
	}
	return revision[:ShortRevisionLength]
}
