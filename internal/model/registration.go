package model

// Registration is the validated, canonical form of a registration request.
// Every field has already been through its validator: the enrollment id is
// exactly nine digits, the date is dd/mm/yyyy, the time is hh:mm, the
// signature code is the eight dot-separated groups, the name is recapitalized
// and so on. It is built once from raw input, consumed once by the
// registration service and discarded.
type Registration struct {
	// Enrollment is the nine digit enrollment identifier (DRE).
	Enrollment string
	// IssueDate is the document issue date, dd/mm/yyyy.
	IssueDate string
	// IssueTime is the document issue time, hh:mm.
	IssueTime string
	// SignatureCode is the document authentication code,
	// XXXX.XXXX.XXXX.XXXX.XXXX.XXXX.XXXX.XXXX.
	SignatureCode string
	// FullName is the student's full name as recapitalized by the
	// validator ("José da Silva").
	FullName string
	// Email is the student's external email address.
	Email string
	// Phone is the student's phone number, canonical +55 form.
	Phone string
	// Password is the chosen account password. Held only in memory and
	// zeroed once the directory entry has been written.
	Password Secret
}
