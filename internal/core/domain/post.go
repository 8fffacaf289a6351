package domain

// Post is a text entry owned by exactly one user.
type Post struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	OwnerID int64  `json:"owner_id"`
}

// OwnedBy reports whether the post belongs to userID.
func (p Post) OwnedBy(userID int64) bool {
	return p.OwnerID == userID
}
