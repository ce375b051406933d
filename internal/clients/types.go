// internal/clients/types.go
package clients

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The order service expects money as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Page mirrors the backend's paged response.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	HasNext       bool  `json:"hasNext"`
	HasPrevious   bool  `json:"hasPrevious"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
}

type Book struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	ISBN          string          `json:"isbn,omitempty"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	PublishedDate string          `json:"publishedDate,omitempty"`
	CoverImageURL string          `json:"coverImageUrl,omitempty"`
	StockQuantity int             `json:"stockQuantity"`
	SellerID      string          `json:"sellerId,omitempty"`
	IsActive      bool            `json:"isActive"`
	Rating        decimal.Decimal `json:"rating"`
	ReviewCount   int             `json:"reviewCount"`
	Language      string          `json:"language,omitempty"`
	PageCount     int             `json:"pageCount,omitempty"`
	Publisher     string          `json:"publisher,omitempty"`
	Categories    []Category      `json:"categories,omitempty"`
	InStock       bool            `json:"inStock"`
	Available     bool            `json:"available"`
}

// BookInput is the seller's create/update payload.
type BookInput struct {
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	ISBN          string          `json:"isbn,omitempty"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	PublishedDate string          `json:"publishedDate,omitempty"`
	CoverImageURL string          `json:"coverImageUrl,omitempty"`
	StockQuantity int             `json:"stockQuantity"`
	SellerID      string          `json:"sellerId,omitempty"`
	Language      string          `json:"language,omitempty"`
	PageCount     int             `json:"pageCount,omitempty"`
	Publisher     string          `json:"publisher,omitempty"`
	CategoryNames []string        `json:"categoryNames,omitempty"`
}

// Order statuses.
const (
	StatusPending    = "PENDING"
	StatusConfirmed  = "CONFIRMED"
	StatusProcessing = "PROCESSING"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCancelled  = "CANCELLED"
	StatusRefunded   = "REFUNDED"
)

// PaymentMethods accepted by the order service.
var PaymentMethods = []string{
	"CREDIT_CARD", "DEBIT_CARD", "PAYPAL", "STRIPE", "APPLE_PAY",
	"GOOGLE_PAY", "BANK_TRANSFER", "CASH_ON_DELIVERY", "CRYPTOCURRENCY",
}

type OrderItem struct {
	ID           string          `json:"id,omitempty"`
	BookID       string          `json:"bookId"`
	BookTitle    string          `json:"bookTitle"`
	BookAuthor   string          `json:"bookAuthor"`
	BookISBN     string          `json:"bookIsbn,omitempty"`
	BookImageURL string          `json:"bookImageUrl,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

type Order struct {
	ID                 string          `json:"id"`
	OrderID            string          `json:"orderId,omitempty"`
	UserID             string          `json:"userId,omitempty"`
	OrderNumber        string          `json:"orderNumber,omitempty"`
	Status             string          `json:"status"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	ShippingCost       decimal.Decimal `json:"shippingCost"`
	TaxAmount          decimal.Decimal `json:"taxAmount"`
	FinalAmount        decimal.Decimal `json:"finalAmount"`
	ShippingAddress    string          `json:"shippingAddress,omitempty"`
	ShippingCity       string          `json:"shippingCity,omitempty"`
	ShippingPostalCode string          `json:"shippingPostalCode,omitempty"`
	ShippingCountry    string          `json:"shippingCountry,omitempty"`
	PaymentMethod      string          `json:"paymentMethod,omitempty"`
	PaymentStatus      string          `json:"paymentStatus,omitempty"`
	OrderItems         []OrderItem     `json:"orderItems"`
	TrackingNumber     string          `json:"trackingNumber,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	OrderNotes         string          `json:"orderNotes,omitempty"`
	CreatedAt          string          `json:"createdAt,omitempty"`
}

// Reference returns the id the backend gave the order, or "N/A".
func (o Order) Reference() string {
	switch {
	case o.ID != "":
		return o.ID
	case o.OrderID != "":
		return o.OrderID
	}
	return "N/A"
}

type OrderLine struct {
	BookID    string          `json:"bookId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type ShippingAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

// OrderRequest is the order-creation body.
type OrderRequest struct {
	Items           []OrderLine     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Notes           string          `json:"notes"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
}

type AuthResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type,omitempty"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// User is both the profile and the admin view of an account.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	FullName   string `json:"fullName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role"`
	IsActive   bool   `json:"isActive"`
	IsVerified bool   `json:"isVerified"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type UserUpdate struct {
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role,omitempty"`
	IsActive   *bool  `json:"isActive,omitempty"`
	IsVerified *bool  `json:"isVerified,omitempty"`
}

type DashboardStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	ActiveUsers   int64 `json:"activeUsers"`
	InactiveUsers int64 `json:"inactiveUsers"`
	TotalSellers  int64 `json:"totalSellers"`
	ActiveSellers int64 `json:"activeSellers"`
	TotalAdmins   int64 `json:"totalAdmins"`
	VerifiedUsers int64 `json:"verifiedUsers"`
}
