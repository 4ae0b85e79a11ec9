package entity

import (
	"strings"
	"time"
)

// RoleAdmin marks campus staff accounts with moderation access.
const RoleAdmin = "admin"

type User struct {
	ID             string `json:"id" firestore:"id"`
	Email          string `json:"email" firestore:"email"`
	FirstName      string `json:"first_name" firestore:"firstName"`
	LastName       string `json:"last_name" firestore:"lastName"`
	ContactNum     string `json:"contact_num,omitempty" firestore:"contactNum,omitempty"`
	StudentID      string `json:"student_id,omitempty" firestore:"studentId,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty" firestore:"profilePicture,omitempty"`
	Role           string `json:"role" firestore:"role"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "Unknown User"
	}
	return name
}
