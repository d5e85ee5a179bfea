package domain

// UserErrorForm is a problem report typed in by an end user. It goes to
// a separate collector endpoint and is never buffered.
type UserErrorForm struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Page  string `json:"page,omitempty"`
}
