package model

// Review is a guest's rating of a listing after a completed stay.  Pros
// holds one to five positive points and Cons up to five negative ones,
// in the order the guest entered them.  OwnerResponse stays nil until an
// administrator answers.
type Review struct {
	ID            uint64   `json:"id,omitempty"`
	ListingID     uint64   `json:"listingId"`
	UserID        uint64   `json:"userId"`
	Rating        int      `json:"rating"`
	Title         string   `json:"title"`
	Comment       string   `json:"comment"`
	Pros          []string `json:"pros"`
	Cons          []string `json:"cons"`
	Date          Date     `json:"date"`
	IsVerified    bool     `json:"isVerified"`
	OwnerResponse *string  `json:"ownerResponse"`
}

// ReviewDetail is a review annotated with its author's username.
type ReviewDetail struct {
	Review
	Author string `json:"author"`
}
