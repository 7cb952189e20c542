package model

// A User represents a database record.
type User struct {
	Base `codec:",inline" storm:"inline"`

	Username string `json:"username"        codec:"username"      storm:"unique"`
	Email    string `json:"email,omitempty" codec:"email"         storm:"unique"`
	// Password is the argon2id encoded hash. Empty means no password is set
	// and no credential must ever verify against it.
	Password string `json:"-" codec:"password,omitempty"`
	Admin    bool   `json:"admin" codec:"admin"`
}

// NewUser returns a new user with default params.
func NewUser() *User {
	return &User{}
}
