package request

import "github.com/ic-ufrj/alumnic/internal/model"

// RegisterRequest is the request body for registering a new student
// account. The field names follow the institutional form the students
// fill in.
type RegisterRequest struct {
	Enrollment    string       `json:"dre"`
	IssueDate     string       `json:"data"`
	IssueTime     string       `json:"hora"`
	SignatureCode string       `json:"codigo"`
	FullName      string       `json:"nome"`
	Email         string       `json:"email"`
	Phone         string       `json:"telefone"`
	Password      model.Secret `json:"senha"`
}
