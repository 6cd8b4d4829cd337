package model

// User is an account record.  Password holds whatever the data store
// keeps: a bcrypt hash for accounts registered through this service, or
// the plaintext of legacy seed records.  Callers outside the session and
// store packages should only ever see a User passed through Public.
type User struct {
	ID       uint64 `json:"id,omitempty"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Public returns a copy of u without the password.
func (u User) Public() User {
	u.Password = ""
	return u
}
