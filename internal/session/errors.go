package session

import "errors"

var errShortWrite = errors.New("session: short write to connection")
