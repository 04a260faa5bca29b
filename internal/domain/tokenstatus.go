package domain

// TokenStatus is the tri-state outcome of an ensure-valid-token check.
type TokenStatus int

const (
	// TokenMissing means no access token is persisted at all; the caller
	// should treat the request as anonymous.
	TokenMissing TokenStatus = iota
	// TokenExpired means the access token is expired (or expires within
	// the safety buffer) and could not be refreshed. Persisted tokens are
	// left untouched; escalating to a forced logout is the caller's job.
	TokenExpired
	// TokenValid means a usable access token is persisted right now.
	TokenValid
)

func (s TokenStatus) String() string {
	switch s {
	case TokenMissing:
		return "missing"
	case TokenExpired:
		return "expired"
	case TokenValid:
		return "valid"
	default:
		return "unknown"
	}
}
