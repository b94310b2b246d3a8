package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null;size:80"  json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null;size:100"        json:"name"`
	Price       float64 `gorm:"not null"                 json:"price"`
	Description string  `gorm:"type:text"                json:"description"`
}

// CartItem is one unit of one product in one user's cart.
type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint `gorm:"index;not null"           json:"user_id"`
	ProductID uint `gorm:"index;not null"           json:"product_id"`
}

type Session struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	JTI       string `gorm:"uniqueIndex;not null" json:"jti"`
	TokenHash string `gorm:"not null"             json:"-"`
	UserID    uint   `gorm:"index;not null"       json:"user_id"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
}

// CartLine is a cart item joined with the current product name and price.
type CartLine struct {
	ID           uint    `json:"id"`
	UserID       uint    `json:"user_id"`
	ProductID    uint    `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
}

func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}, &Session{}}
}
