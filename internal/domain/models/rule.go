package models

// Rule is a named shared password guarding the reporting screens.
type Rule struct {
	Key      string `json:"-"`
	Type     string `json:"type"`
	Password string `json:"password"`
}
