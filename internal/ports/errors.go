package ports

import "errors"

var ErrNotFound = errors.New("not found")

var ErrConflict = errors.New("conflict")

var ErrUnauthorized = errors.New("unauthorized")

// ErrQuotaExceeded: 403 sur la traduction de sous-titres, distinct d'un 403
// d'authentification (compte banni).
var ErrQuotaExceeded = errors.New("quota exceeded")
