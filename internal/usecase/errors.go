package usecase

import "errors"

var ErrClientNameRequired = errors.New("client name is required")
