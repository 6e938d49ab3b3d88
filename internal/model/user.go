package model

import "time"

type UserRole string

const (
	Student    UserRole = "student"
	Instructor UserRole = "instructor"
)

// swagger:model User
type User struct {
	BaseModel
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;unique;not null" json:"email"`
	Password     string    `gorm:"size:100;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;default:'student'" json:"role"`
	Organization string    `gorm:"size:200" json:"organization"`
	Bio          string    `gorm:"type:text" json:"bio"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
