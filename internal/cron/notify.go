package cron

import "context"

// Notifier shows a short, already-localized message to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Confirmer asks the user to approve a destructive action.
// A false result with a nil error means the user declined.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}
