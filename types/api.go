package types

// Request and response payloads exchanged with the inventory API.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyTwoFactorRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// AuthResponse is the body of a successful login or verification. When
// TwoFactor is set, Token and User are absent.
type AuthResponse struct {
	Token     string `json:"token,omitempty"`
	User      *User  `json:"user,omitempty"`
	TwoFactor bool   `json:"twoFactor,omitempty"`
	Message   string `json:"message,omitempty"`
}

type LogoutRequest struct {
	Name string `json:"name"`
}

type NewProductRequest struct {
	ProductName string `json:"product_name"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	ProductType string `json:"product_type"`
	Quantity    int    `json:"quantity"`
	UPCCode     string `json:"upcCode"`
}

// AssignCodeRequest is used by both /assign-upc and /init-upc.
type AssignCodeRequest struct {
	ID      int    `json:"id"`
	UPCCode string `json:"upcCode"`
}

// UpdateQuantityRequest carries a signed delta, not the resulting value.
type UpdateQuantityRequest struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

type AppendLogRequest struct {
	StockID         *int      `json:"stock_id"`
	UserName        *string   `json:"user_name"`
	ItemDescription *string   `json:"item_description"`
	Action          LogAction `json:"action"`
	QuantityBefore  *int      `json:"quantity_before"`
	QuantityAfter   *int      `json:"quantity_after"`
	Commentaire     *string   `json:"commentaire"`
}

type ProductNameResponse struct {
	ProductName string `json:"product_name"`
}

// ErrorResponse is the failure body. Most endpoints fill Error; product
// lookups fill Message.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
