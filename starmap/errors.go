package starmap

import "errors"

var (
	ErrInvalidInput     = errors.New("starmap: invalid input")
	ErrRegionFull       = errors.New("starmap: no room left to place a system")
	ErrOutOfMemory      = errors.New("starmap: system limit reached")
	ErrRekeyUnsupported = errors.New("starmap: index does not support rekeying")
	ErrUnknownSystem    = errors.New("starmap: unknown system")
)
