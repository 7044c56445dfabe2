package entity

import "github.com/mbeoliero/tradehub/pkg/constant"

// User represents a marketplace account. Accounts start pending and
// become active once an admin approves them.
type User struct {
	Id           string `json:"id" gorm:"column:id;primaryKey"`
	Email        string `json:"email" gorm:"column:email;uniqueIndex"`
	PasswordHash string `json:"-" gorm:"column:password_hash"`
	DisplayName  string `json:"display_name" gorm:"column:display_name"`
	CompanyName  string `json:"company_name" gorm:"column:company_name"`
	Role         string `json:"role" gorm:"column:role"`
	Status       string `json:"status" gorm:"column:status"`
	CreatedAt    int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt    int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// IsAdmin checks if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == constant.RoleAdmin
}

// IsActive checks if the account has been approved
func (u *User) IsActive() bool {
	return u.Status == constant.UserStatusActive
}

// UserInfo represents user info for API response
type UserInfo struct {
	Id          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
}

// ToUserInfo converts User to UserInfo
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		Id:          u.Id,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CompanyName: u.CompanyName,
		Role:        u.Role,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
	}
}
