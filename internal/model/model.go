package model

import "time"

// Contact is the data structure for a person that we know.
// The Id and CreatedAt fields are assigned by the store and never change afterwards.
type Contact struct {
	Id        string    `json:"id"        db:"id"`
	Avatar    string    `json:"avatar"    db:"avatar"`
	First     string    `json:"first"     db:"first"`
	Last      string    `json:"last"      db:"last"`
	Twitter   string    `json:"twitter"   db:"twitter"`
	Favorite  bool      `json:"favorite"  db:"favorite"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Fields are the user editable values of a contact. Create and update always carry all of
// them.
type Fields struct {
	Avatar  string `db:"avatar"`
	First   string `db:"first"`
	Last    string `db:"last"`
	Twitter string `db:"twitter"`
}

// Patch describes a partial update of a contact. Only the non-nil fields are written.
type Patch struct {
	Avatar   *string
	First    *string
	Last     *string
	Twitter  *string
	Favorite *bool
}

// Empty returns true if the patch would not change anything.
func (p Patch) Empty() bool {
	return p.Avatar == nil && p.First == nil && p.Last == nil && p.Twitter == nil &&
		p.Favorite == nil
}

// ReplaceFields returns a patch that overwrites all user editable values with f.
func ReplaceFields(f Fields) Patch {
	return Patch{Avatar: &f.Avatar, First: &f.First, Last: &f.Last, Twitter: &f.Twitter}
}

// Apply writes the non-nil values of p into c.
func (p Patch) Apply(c *Contact) {
	if p.Avatar != nil {
		c.Avatar = *p.Avatar
	}
	if p.First != nil {
		c.First = *p.First
	}
	if p.Last != nil {
		c.Last = *p.Last
	}
	if p.Twitter != nil {
		c.Twitter = *p.Twitter
	}
	if p.Favorite != nil {
		c.Favorite = *p.Favorite
	}
}
