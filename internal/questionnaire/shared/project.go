package shared

// Project owns one questionnaire chain.
type Project struct {
	ID   ProjectID
	Name string
}
