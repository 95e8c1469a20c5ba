package model

// Contact is a phonebook entry as stored on the database. Only the surname
// and email are optional; the id is assigned by the database on insert.
type Contact struct {
	Id      int64   `json:"id"      db:"id"`
	Name    string  `json:"name"    db:"name"`
	Surname *string `json:"surname" db:"surname"`
	Phone   string  `json:"phone"   db:"phone"`
	Email   *string `json:"email"   db:"email"`
}

// ContactInput is the request payload for creating or replacing a contact.
// The phone number is checked and canonicalized separately by the service
// layer because binding tags cannot express phone number rules.
type ContactInput struct {
	Name    string  `json:"name"    binding:"required,max=255"`
	Surname *string `json:"surname" binding:"omitempty,max=255"`
	Phone   string  `json:"phone"   binding:"required"`
	Email   *string `json:"email"   binding:"omitempty,email"`
}

// User is an account that may authenticate against the token endpoint.
// The password hash never leaves the process.
type User struct {
	Id             int64  `json:"id"       db:"id"`
	Username       string `json:"username" db:"username"`
	HashedPassword string `json:"-"        db:"hashed_password"`
}

// Page is a bounded slice of a result set together with the total number of
// matching rows, independent of limit and offset.
type Page[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

// Token is the response of the token issuance endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
