package models

// Preference value kinds. The kind is stored with the value so a plain
// string that happens to look like JSON is never mis-decoded.
const (
	PreferenceKindString = "string"
	PreferenceKindJSON   = "json"
)

// Preference is one (user, key) setting. Value holds either the raw string
// or the JSON encoding, according to Kind.
type Preference struct {
	UserID string
	Key    string
	Kind   string
	Value  string
}
