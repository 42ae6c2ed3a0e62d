package auth

// Known auth error codes returned to the client. Handlers map them to
// user-facing messages with MessageForCode; unknown codes yield no message.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeUserAlreadyExists  = "user_already_exists"
	CodeEmailNotConfirmed  = "email_not_confirmed"
	CodeSignupDisabled     = "signup_disabled"
	CodeRateLimited        = "over_request_rate_limit"
	CodeParseError         = "parse_error"
)

// AuthError carries a known error code through the auth service boundary.
type AuthError struct {
	Code string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return "auth error: " + e.Code
}

// NewAuthError creates an AuthError with the given code.
func NewAuthError(code string) *AuthError {
	return &AuthError{Code: code}
}

// MessageForCode maps a known error code to a user-facing message.
// Unknown codes return the empty string.
func MessageForCode(code string) string {
	switch code {
	case CodeInvalidCredentials:
		return "Invalid email or password."
	case CodeUserAlreadyExists:
		return "An account with this email already exists."
	case CodeEmailNotConfirmed:
		return "Please confirm your email before signing in."
	case CodeSignupDisabled:
		return "Signups are currently disabled."
	case CodeRateLimited:
		return "Too many attempts. Try again later."
	case CodeParseError:
		return "Please check the form fields and try again."
	default:
		return ""
	}
}
