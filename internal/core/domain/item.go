package domain

// Item is anything held in a resource list. ItemID is the server-assigned id.
type Item interface {
	ItemID() string
}

// Searchable items can be narrowed by the filter view-model.
type Searchable interface {
	Item
	// ItemStatus is the value compared against the status filter. Items
	// without a status return "".
	ItemStatus() string
	// SearchText returns every string a search term is matched against.
	SearchText() []string
}

// FormSource items can seed an edit form. Image fields report their stored URL.
type FormSource interface {
	FormValues() map[string]string
}
