package audio

import "errors"

var (
	ErrUnknownFormat     = errors.New("unknown sample format")
	ErrUnsupportedFormat = errors.New("sample format cannot be reduced to 16-bit mono")
	ErrInvalidParameters = errors.New("invalid capture parameters")
	ErrNoFormat          = errors.New("no sample format accepted by device")
	ErrNoReadiness       = errors.New("device exposes no readiness descriptor")
	ErrAlreadyOpen       = errors.New("capture already open")
	ErrClosed            = errors.New("capture closed")
)
