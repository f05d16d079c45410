package service

import (
	"fmt"

	"repwise/repwise-app/internal/domain"
)

// Stable user-facing messages. The UI displays these verbatim.
const (
	msgUnableToSave = "Unable to save changes. Please try again."
	msgUnableToLoad = "Unable to load your data. Please try again."
)

// translate is the uniform boundary wrapper: errors already classified as
// Auth, Validation or Database pass through unchanged; anything else becomes
// a Database error carrying userMsg for the UI and internal for the logs.
func translate(err error, userMsg, internal string) error {
	if err == nil {
		return nil
	}
	if domain.IsClassified(err) {
		return err
	}
	return domain.NewDatabaseError(userMsg, internal, err)
}

// saveErr and loadErr shorten the two common translate calls.
func saveErr(err error, format string, args ...any) error {
	return translate(err, msgUnableToSave, fmt.Sprintf(format, args...))
}

func loadErr(err error, format string, args ...any) error {
	return translate(err, msgUnableToLoad, fmt.Sprintf(format, args...))
}
