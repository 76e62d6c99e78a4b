package db

import "fmt"

// Store failure classes. ErrStorage and ErrTransactionFailed both abort
// the in-progress batch; callers treat either as fatal for the run.
var (
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrDatabaseConnection = fmt.Errorf("database connection error")
	ErrTransactionFailed  = fmt.Errorf("transaction failed")
	ErrStorage            = fmt.Errorf("storage error")
)
