package application

import (
	"fmt"
	"time"
)

// AnonymousEmail is recorded when the applicant gives no email.
const AnonymousEmail = "anonymous"

// Application records a user applying to a program.
type Application struct {
	ID          string
	ProgramID   string
	ProgramName string
	UserEmail   string
	AppliedAt   time.Time
}

// New validates an application.
func New(id, programID, programName, userEmail string, now time.Time) (Application, error) {
	if programID == "" || programName == "" {
		return Application{}, fmt.Errorf("program_id and program_name required")
	}
	if userEmail == "" {
		userEmail = AnonymousEmail
	}
	return Application{
		ID: id, ProgramID: programID, ProgramName: programName,
		UserEmail: userEmail, AppliedAt: now,
	}, nil
}
