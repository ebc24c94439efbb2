package types

// SecretMessage is the placeholder resource served to authenticated users.
type SecretMessage struct {
	Secret string `json:"secret"`
}
