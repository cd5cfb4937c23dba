package dto

// AccountInput carries the fields needed to register an account.
type AccountInput struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// Validate reports every failing field as a validation error.
func (in AccountInput) Validate() error {
	var b binding
	b.validate(in)
	return b.err()
}
