package repository

import "errors"

// ErrNotFound is returned when a lookup or delete matches no row. Callers
// branch on it with errors.Is; everything else is a storage failure wrapped
// with context at the repository boundary.
var ErrNotFound = errors.New("not found")
