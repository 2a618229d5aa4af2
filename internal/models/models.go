package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole represents the role of a user
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents a registered user
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string         `gorm:"not null;size:255" json:"-"` // Never expose password hash
	DisplayName  string         `gorm:"size:100" json:"displayName,omitempty"`
	Role         UserRole       `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsActive     bool           `gorm:"default:true;index" json:"isActive"`
	LastLoginAt  *time.Time     `gorm:"type:timestamp" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID if not set
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken represents a refresh token for JWT authentication
type RefreshToken struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	Token     string         `gorm:"uniqueIndex;not null;size:255" json:"-"` // Hashed token
	ExpiresAt time.Time      `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	RevokedAt *time.Time     `gorm:"type:timestamp;index" json:"revokedAt,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	User      User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook to generate UUID if not set
func (rt *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}

// IsValid checks if the refresh token is still valid
func (rt *RefreshToken) IsValid() bool {
	return rt.RevokedAt == nil && time.Now().Before(rt.ExpiresAt)
}

// Document is a record in a named collection of the document store.
// Date fields hold whatever string was submitted; readers parse them.
type Document struct {
	ID         string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	Collection string         `gorm:"not null;size:100;index" json:"collection"`
	Text       string         `gorm:"size:1000" json:"text"`
	Complete   bool           `gorm:"default:false" json:"complete"`
	StartDate  string         `gorm:"size:64" json:"startDate"`
	EndDate    string         `gorm:"size:64" json:"endDate"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook assigns the store-side identifier
func (d *Document) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// NewDocument holds the fields submitted when adding a document
type NewDocument struct {
	Text      string `json:"text"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// DocumentUpdate names the fields to overwrite; nil fields are left untouched
type DocumentUpdate struct {
	Text      *string `json:"text,omitempty"`
	Complete  *bool   `json:"complete,omitempty"`
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
}

// Todo is a to-do item as seen by the list view
type Todo struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Complete  bool       `json:"complete"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// TodoView is a Todo with its display status, as served by the JSON API
type TodoView struct {
	Todo
	Status string `json:"status"`
	Color  string `json:"color"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Authentication DTOs

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email       string `json:"email" form:"email" binding:"required,email,max=255"`
	Password    string `json:"password" form:"password" binding:"required,min=8,max=72"` // bcrypt max is 72 bytes
	DisplayName string `json:"displayName,omitempty" form:"displayName" binding:"max=100"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RefreshTokenRequest represents a refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"` // Always "Bearer"
	ExpiresIn    int       `json:"expiresIn"` // Access token expiry in seconds
	User         *UserInfo `json:"user"`
}

// UserInfo represents public user information (safe to expose)
type UserInfo struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        UserRole  `json:"role"`
}

// TodoForm is the form payload for creating or updating an item
type TodoForm struct {
	Text      string `form:"text"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}
