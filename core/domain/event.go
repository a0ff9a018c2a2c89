package domain

// Event is a calendar event extracted from a message body. Every field comes
// from the model output; fields the model did not emit stay nil and are
// stored as NULL, never filled with defaults.
type Event struct {
	ID          int64   `json:"id" db:"id"`
	Date        *string `json:"date" db:"date"`
	Name        *string `json:"name" db:"name"`
	Time        *string `json:"time" db:"time"`
	Location    *string `json:"location" db:"location"`
	Description *string `json:"description" db:"description"`
	Price       *string `json:"price" db:"price"`
}
