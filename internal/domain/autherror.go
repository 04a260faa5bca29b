package domain

import "encoding/json"

// AuthError is the server-provided failure payload for the auth endpoints,
// surfaced to callers verbatim. FieldError, when present, is a
// [fieldName, message] pair for form-level display.
type AuthError struct {
	Message    string     `json:"error"`
	FieldError *FieldPair `json:"field-error,omitempty"`
}

// FieldPair is serialized as a two-element JSON array.
type FieldPair struct {
	Field   string
	Message string
}

func (e *AuthError) Error() string {
	if e == nil || e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

func (p *FieldPair) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) > 0 {
		p.Field = raw[0]
	}
	if len(raw) > 1 {
		p.Message = raw[1]
	}
	return nil
}

func (p FieldPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{p.Field, p.Message})
}
