// Package model contains the JSON types exchanged with the contacts API. Clients of the API
// can import it instead of redeclaring the wire format.
package model

import "time"

// Contact is the data structure for a person that we know, as returned by the API.
type Contact struct {
	Id        string    `json:"id"`
	Avatar    string    `json:"avatar"`
	First     string    `json:"first"`
	Last      string    `json:"last"`
	Twitter   string    `json:"twitter"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactRequest is the body of the create and update calls.
type ContactRequest struct {
	Avatar  string `json:"avatar"`
	First   string `json:"first"`
	Last    string `json:"last"`
	Twitter string `json:"twitter"`
}

// Message is the body of all error responses.
type Message struct {
	Message string `json:"message"`
}

// User identifies the account a session belongs to.
type User struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

// Credentials are posted to the sign-in and register endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by the sign-in and register endpoints. Only the presence of the
// token decides whether the call succeeded.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
