package application

import "errors"

var ErrUnknownProvider = errors.New("unknown provider")
var ErrDuplicateProvider = errors.New("provider already registered")
