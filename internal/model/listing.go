package model

// Listing is a bookable property.  Administrators create, edit and delete
// listings; everyone else only reads them.
//
// Fields:
//  ID          – data store identifier.
//  Title       – headline shown on cards and the detail page.
//  Description – free text, searched together with Title.
//  Location    – city or area; the browse filter matches it exactly,
//                ignoring case.
//  Price       – nightly price in whole currency units.
//  Bedrooms    – number of bedrooms (at least one).
//  Bathrooms   – number of bathrooms (at least one).
//  MaxGuests   – guest capacity (at least one).
//  Image       – URL of the cover image.
type Listing struct {
	ID          uint64 `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Price       int64  `json:"price"`
	Bedrooms    int    `json:"bedrooms"`
	Bathrooms   int    `json:"bathrooms"`
	MaxGuests   int    `json:"maxGuests"`
	Image       string `json:"image"`
}
