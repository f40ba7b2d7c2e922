package impl

import "errors"

var (
	ErrEmptyPassword   = errors.New("empty password")
	ErrEmptyCredential = errors.New("empty credential(s)")
	ErrEmptySubject    = errors.New("identity has no subject")
	ErrCodeLength      = errors.New("activation code length must be positive")
)
