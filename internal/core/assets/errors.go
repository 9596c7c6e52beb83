package assets

import (
	"errors"
	"io/fs"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrInvalidRef    = errors.New("invalid asset ref")
)

func errorsIsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
