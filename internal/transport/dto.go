package transport

import "time"

type ProductSummary struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Price           float64   `json:"price"`
	DiscountedPrice float64   `json:"discounted_price"`
	Discount        float64   `json:"discount"`
	UserLikes       bool      `json:"user_likes"`
	Image           *string   `json:"image"`
	MonthlyPay      *string   `json:"monthly_pay"`
	Category        string    `json:"category"`
	CreatedAt       time.Time `json:"created_at"`
}

type CategoryItem struct {
	ID                   uint      `json:"id"`
	Title                string    `json:"title"`
	Slug                 string    `json:"slug"`
	Image                string    `json:"image"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	ImageOfCategory      *string   `json:"image_of_category"`
	ProductCount         int64     `json:"product_count"`
	TotalPriceOfProducts *int64    `json:"total_price_of_products"`
}

type CommentBody struct {
	Content string `json:"content"`
	Time    string `json:"time"`
	Rating  int    `json:"rating"`
}

type ProductDetail struct {
	ID              uint                     `json:"id"`
	Name            string                   `json:"name"`
	Slug            string                   `json:"slug"`
	Price           float64                  `json:"price"`
	Discount        float64                  `json:"discount"`
	DiscountedPrice float64                  `json:"discounted_price"`
	MonthlyPay      *string                  `json:"monthly_pay"`
	Description     string                   `json:"description"`
	Category        uint                     `json:"category"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	Images          []string                 `json:"images"`
	Attributes      map[string]string        `json:"attributes"`
	Comments        []map[string]CommentBody `json:"comments"`
	Rating          *float64                 `json:"rating"`
	UserLikes       bool                     `json:"user_likes"`
}

type AttributeKeyItem struct {
	ID        uint      `json:"id"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

type AttributeValueItem struct {
	ID        uint      `json:"id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

type AttributeItem struct {
	ID      uint   `json:"id"`
	Product uint   `json:"product"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

type ImageItem struct {
	ID        uint   `json:"id"`
	Product   uint   `json:"product"`
	Image     string `json:"image"`
	IsPrimary bool   `json:"is_primary"`
}

type CommentItem struct {
	ID       uint   `json:"id"`
	Product  uint   `json:"product"`
	Username string `json:"username"`
	Content  string `json:"content"`
	Rating   int    `json:"rating"`
	Time     string `json:"time"`
}

// Requests. Pointer fields distinguish "absent" from zero values for partial updates.

type CategoryRequest struct {
	Title *string `json:"title"`
	Slug  *string `json:"slug"`
	Image *string `json:"image"`
}

type ProductRequest struct {
	Name        *string  `json:"name"`
	Slug        *string  `json:"slug"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Discount    *float64 `json:"discount"`
	Category    *uint    `json:"category"`
}

type ImageRequest struct {
	Image     string `json:"image"`
	IsPrimary bool   `json:"is_primary"`
}

type AttributeRequest struct {
	Key   uint `json:"key"`
	Value uint `json:"value"`
}

type AttributeKeyRequest struct {
	Key string `json:"key"`
}

type AttributeValueRequest struct {
	Value string `json:"value"`
}

type CommentRequest struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type SearchResult struct {
	Data []SearchHit `json:"data"`
	Meta PageMeta    `json:"meta"`
}

type SearchHit struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discounted_price"`
	Category        string  `json:"category"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}
