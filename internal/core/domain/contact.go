package domain

// Person sources.
const (
	SourceContact  = "contact"
	SourceCalendar = "calendar"
)

// Person is a contact or calendar owner known to the signed-in user.
type Person struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Source   string `json:"source"`
	JobTitle string `json:"job_title,omitempty"`
	Company  string `json:"company,omitempty"`
}
