package request

type Register struct {
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required"       json:"password"`
}

type Login struct {
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required"       json:"password"`
}

type ResetPassword struct {
	Email string `validate:"required,email" json:"email"`
}

// UpdateProfile carries a partial edit; nil fields are left untouched.
type UpdateProfile struct {
	Username  *string   `json:"username"`
	Addresses *[]string `json:"addresses"`
}

type WishlistItem struct {
	ProductID string `validate:"required" json:"productId"`
}
