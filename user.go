package session

// User is the identity record a provider reports for a signed-in user.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
	IsAnonymous   bool   `json:"is_anonymous,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	ProviderID    string `json:"provider_id,omitempty"`
}

// Authenticated reports whether the record represents a named, non-anonymous
// identity.
func (u *User) Authenticated() bool {
	return u != nil && !u.IsAnonymous
}

// Clone returns a copy so observers never share the container's record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
