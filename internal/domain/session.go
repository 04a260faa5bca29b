package domain

// User is the authenticated identity carried inside the encrypted session
// record. The server is the source of truth; the client never mutates it.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SessionRecord is the decrypted shape of the persisted "session" entry.
// Absence of a decryptable record means "no session".
type SessionRecord struct {
	User User `json:"user"`
}

// TokenPair is the access/refresh credential pair. The two tokens are always
// set and cleared together.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
