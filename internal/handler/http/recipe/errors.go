package recipe

import "errors"

var (
	errURLRequired = errors.New("query parameter url is required")
	errBadJSON     = errors.New("invalid JSON body")
)
