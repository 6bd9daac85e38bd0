package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"     json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254;index"               json:"email"`
	FirstName    string    `gorm:"size:150"                     json:"first_name"`
	LastName     string    `gorm:"size:150"                     json:"last_name"`
	PasswordHash string    `gorm:"not null"                     json:"-"`
	IsStaff      bool      `gorm:"default:false"                json:"is_staff"`
	IsSuperuser  bool      `gorm:"default:false"                json:"is_superuser"`
	IsActive     bool      `gorm:"default:true"                 json:"is_active"`
	CreatedAt    time.Time `json:"date_joined"`
	UpdatedAt    time.Time `json:"-"`
}

// CanDelete reports whether the user holds one of the roles allowed to remove catalog entries.
func (u *User) CanDelete() bool {
	return u != nil && (u.IsStaff || u.IsSuperuser)
}

type Category struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Title     string    `gorm:"size:300;uniqueIndex;not null" json:"title"`
	Slug      string    `gorm:"size:300;uniqueIndex;not null" json:"slug"`
	Image     string    `gorm:"not null"                      json:"image"`
	Products  []Product `gorm:"constraint:OnDelete:CASCADE"   json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID          uint        `gorm:"primaryKey;autoIncrement"         json:"id"`
	Name        string      `gorm:"size:300;not null"                json:"name"`
	Slug        string      `gorm:"size:300;index;not null"          json:"slug"`
	Price       float64     `gorm:"not null"                         json:"price"`
	Description string      `gorm:"type:text;not null"               json:"description"`
	Discount    float64     `gorm:"not null;default:0"               json:"discount"`
	CategoryID  uint        `gorm:"index;not null"                   json:"category"`
	Category    Category    `json:"-"`
	Images      []Image     `gorm:"constraint:OnDelete:CASCADE"      json:"-"`
	Attributes  []Attribute `gorm:"constraint:OnDelete:CASCADE"      json:"-"`
	Comments    []Comment   `gorm:"constraint:OnDelete:CASCADE"      json:"-"`
	UserLikes   []User      `gorm:"many2many:product_user_likes"     json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Image struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Image     string    `gorm:"not null"                 json:"image"`
	ProductID uint      `gorm:"index;not null"           json:"product"`
	IsPrimary bool      `gorm:"default:false"            json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AttributeKey struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string    `gorm:"size:300;not null"        json:"key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

type AttributeValue struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Value     string    `gorm:"size:300;not null"        json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

type Attribute struct {
	ID               uint           `gorm:"primaryKey;autoIncrement"    json:"id"`
	AttributeKeyID   uint           `gorm:"index;not null"              json:"key"`
	AttributeKey     AttributeKey   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AttributeValueID uint           `gorm:"index;not null"              json:"value"`
	AttributeValue   AttributeValue `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ProductID        uint           `gorm:"index;not null"              json:"product"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	ProductID uint      `gorm:"index;not null"            json:"product"`
	UserID    uint      `gorm:"index;not null"            json:"user"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Rating    int       `gorm:"not null;default:0"        json:"rating"`
	Content   string    `gorm:"type:text;not null"        json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthToken is the opaque per-user token of the "Token <key>" scheme.
type AuthToken struct {
	Key       string    `gorm:"primaryKey;size:40"  json:"token"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created"`
}

// OutstandingToken records every issued refresh token so it can be blacklisted later.
type OutstandingToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	UserID    uint      `gorm:"index;not null"             json:"user_id"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null" json:"jti"`
	TokenHash string    `gorm:"size:64;not null"           json:"-"`
	ExpiresAt time.Time `gorm:"not null"                   json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type BlacklistedToken struct {
	ID        uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	TokenID   uint             `gorm:"uniqueIndex;not null"     json:"token_id"`
	Token     OutstandingToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time        `json:"blacklisted_at"`
}

// All lists every table the service migrates on start.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&Image{},
		&AttributeKey{},
		&AttributeValue{},
		&Attribute{},
		&Comment{},
		&AuthToken{},
		&OutstandingToken{},
		&BlacklistedToken{},
	}
}
