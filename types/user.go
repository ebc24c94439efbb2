package types

// User represents a registered account.
// It holds identity, credential and token data.
type User struct {
	// ID is the unique identifier assigned by the store at creation.
	ID string `json:"userId" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// AccessToken is issued once when the record is created and never changes.
	AccessToken AccessToken `json:"-" db:"access_token"`
}

// AccessToken is an opaque bearer credential. Holding it is the only proof
// of a prior successful authentication.
type AccessToken string

const redactedToken = "[redacted]"

// Value returns the raw token. Use only where the token must leave the
// process, such as a success response body.
func (t AccessToken) Value() string {
	return string(t)
}

// IsZero reports whether the token is empty.
func (t AccessToken) IsZero() bool {
	return t == ""
}

// String keeps the token out of formatted output and log lines.
func (t AccessToken) String() string {
	if t == "" {
		return ""
	}
	return redactedToken
}

// GoString keeps the token out of %#v output.
func (t AccessToken) GoString() string {
	return t.String()
}

// MarshalText keeps the token out of structured encoders such as JSON log
// formatters. Response bodies carry the token through Value.
func (t AccessToken) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
