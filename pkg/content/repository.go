// Package content stores the site's JSON documents and serializes every
// read-modify-write per document.
package content

// Repository groups the five site documents kept under one data directory.
type Repository struct {
	Dir string

	Projects *Collection[Project]
	Works    *Collection[Work]
	Reviews  *Collection[Review]
	Contacts *Singleton[Contacts]
	Prices   *Singleton[PriceSheet]
}

// NewRepository opens the documents under dir. rec may be nil.
func NewRepository(dir string, rec WriteRecorder) *Repository {
	return &Repository{
		Dir:      dir,
		Projects: newCollection[Project](newDocument(dir, "projects", rec)),
		Works:    newCollection[Work](newDocument(dir, "works", rec)),
		Reviews:  newCollection[Review](newDocument(dir, "reviews", rec)),
		Contacts: newSingleton(newDocument(dir, "contacts", rec), "", DefaultContacts),
		Prices:   newSingleton(newDocument(dir, "prices", rec), "prices", DefaultPrices),
	}
}
