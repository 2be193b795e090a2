package identity

import "errors"

var ErrEmailRequired = errors.New("email is required")
