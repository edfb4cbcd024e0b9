package model

// Session is the result of a successful sign-in.
type Session struct {
	Token  string `json:"token"`
	UserID ID     `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}
