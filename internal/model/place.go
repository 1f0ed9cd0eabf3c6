package model

import "time"

// Place is a saved location belonging to a single user.
// UserID is fixed at creation and decides who may edit or delete the place.
type Place struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	IsFav     bool      `json:"is_fav"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOwnedBy reports whether userID owns the place.
func (p *Place) IsOwnedBy(userID string) bool {
	return userID != "" && p.UserID == userID
}

// PlacePatch carries the optional fields of a place update.
// Nil fields are left untouched.
type PlacePatch struct {
	Name    *string
	Address *string
	Lat     *float64
	Lng     *float64
	IsFav   *bool
}

// IsEmpty returns true when the patch would not change anything.
func (p PlacePatch) IsEmpty() bool {
	return p.Name == nil && p.Address == nil && p.Lat == nil && p.Lng == nil && p.IsFav == nil
}
