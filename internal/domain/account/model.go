package account

// Principal is the authenticated caller behind a bearer token.
type Principal struct {
	UserID string
	Email  string
}
