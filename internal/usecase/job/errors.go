package job

import "errors"

var (
	ErrNoAsset           = errors.New("please select an image file")
	ErrInvalidParameters = errors.New("invalid resize parameters")
	ErrSuperseded        = errors.New("submission superseded by a newer job")
)
