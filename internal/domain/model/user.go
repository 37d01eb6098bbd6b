package model

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"` // Not exposed
	Role           string `json:"role"`
	CreatedAt      int64  `json:"created_at"`
}
