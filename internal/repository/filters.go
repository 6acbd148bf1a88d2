package repository

// OrderFilter narrows List results. Zero value means no filtering.
type OrderFilter struct {
	Status OrderStatus // empty matches every status
	ChatID *int64      // orders created from a specific chat
}
