package model

import (
	"encoding/json"
	"time"
)

// Avatar is the stored image reference attached to a user profile.
type Avatar struct {
	URL       string `json:"url"`
	LocalPath string `json:"localPath,omitempty"`
}

// User is the client-side copy of a server user record. It is read-only
// here except through the dedicated auth operations.
type User struct {
	ID              string    `json:"_id"`
	Username        string    `json:"username"`
	FullName        string    `json:"fullName,omitempty"`
	Email           string    `json:"email"`
	Avatar          *Avatar   `json:"avatar,omitempty"`
	Role            string    `json:"role,omitempty"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}

// UserRef is a user reference that the server serializes either as a
// plain id string or as an expanded User object, depending on the
// endpoint. On write it always normalizes back to the plain id.
type UserRef struct {
	User User
}

// ID returns the referenced user id, or "" for an empty reference.
func (r *UserRef) ID() string {
	if r == nil {
		return ""
	}
	return r.User.ID
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*r = UserRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		r.User = User{ID: id}
		return nil
	}
	return json.Unmarshal(data, &r.User)
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.User.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.User.ID)
}
