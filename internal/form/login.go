package form

// LoginFields are the inputs of the login form.
type LoginFields struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=3"`
}

var loginMessages = map[string]string{
	"Email.required":    "Email is required",
	"Email.email":       "Invalid email format",
	"Password.required": "Password is required",
	"Password.min":      "Password must be at least 3 characters",
}

// ValidateLogin checks the login inputs before any request is sent.
func ValidateLogin(fields LoginFields) error {
	return firstFailure(validate.Struct(fields), loginMessages)
}
