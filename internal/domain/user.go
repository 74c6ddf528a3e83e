package domain

import "time"

// User is a dashboard administrator - maps to the users table
type User struct {
	ID           uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Name         string     `gorm:"column:nombre;type:varchar(255)" json:"nombre"`
	Role         string     `gorm:"column:rol;type:varchar(50)" json:"rol"`
	Active       bool       `gorm:"column:activo" json:"activo"`
	CreatedAt    time.Time  `gorm:"column:fecha_creacion;autoCreateTime" json:"fecha_creacion"`
	LastAccess   *time.Time `gorm:"column:ultimo_acceso" json:"ultimo_acceso,omitempty"`
}

// TableName returns the table name
func (User) TableName() string {
	return "users"
}

// RoleAdmin is the only role the dashboard knows
const RoleAdmin = "admin"

// SessionUser is the identity carried by an authenticated session
type SessionUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"nombre"`
	Role  string `json:"rol"`
}

// ToSessionUser strips credentials from a User
func (u *User) ToSessionUser() *SessionUser {
	return &SessionUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}
