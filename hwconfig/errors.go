package hwconfig

import "errors"

var (
	ErrIndexOutOfRange        = errors.New("index out of range")
	ErrEmpty                  = errors.New("no SD card slots configured")
	ErrInvalidPin             = errors.New("invalid GPIO")
	ErrInvalidMode            = errors.New("invalid SPI mode")
	ErrInvalidDriveStrength   = errors.New("invalid drive strength")
	ErrInvalidDMA             = errors.New("invalid DMA channel assignment")
	ErrInvalidLevel           = errors.New("invalid logic level")
	ErrMissingName            = errors.New("missing name")
	ErrDuplicate              = errors.New("duplicate name")
	ErrDanglingReference      = errors.New("dangling reference")
	ErrPinConflict            = errors.New("GPIO used more than once")
	ErrSharedBusWithoutSelect = errors.New("shared SPI bus requires a slave select")
	ErrUnsupportedInterface   = errors.New("unsupported interface type")
	ErrDriveNumberMismatch    = errors.New("slot name names another drive number")
)
