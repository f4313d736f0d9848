package interfaces

import "github.com/m-mizutani/goerr/v2"

// ErrNotFound is returned by every Repository backend for missing records
var ErrNotFound = goerr.New("not found")
