package request

type Checkout struct {
	FirstName string `validate:"required" json:"firstName"`
	LastName  string `validate:"required" json:"lastName"`
	Username  string `validate:"required" json:"username"`
	Email     string `validate:"omitempty,email" json:"email"`
	Address   string `validate:"required" json:"address"`
	Address2  string `json:"address2"`
	Country   string `validate:"required" json:"country"`
	State     string `validate:"required" json:"state"`
	Zip       string `validate:"required" json:"zip"`
}

type UpdateStatus struct {
	Status string `validate:"required" json:"status"`
}
