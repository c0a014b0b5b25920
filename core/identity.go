package core

// Identity is the author recorded on table history commits.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
