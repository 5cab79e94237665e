package toodle

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/toodle/pkg/types"
)

// ErrWrongStore reports a facade passed to a store that did not produce it.
var ErrWrongStore = errors.New("entity belongs to another store")

// ErrHandleOwned reports an item handle that a live Item already owns.
var ErrHandleOwned = errors.New("handle already owned by a live item")

// nativeErr converts an engine failure into ErrNativeOperationFailed. The
// engine's own sentinels are rendered as text only, so they cannot be
// matched above this package.
func nativeErr(op string, err error) error {
	if errors.Is(err, types.ErrUseAfterRelease) || errors.Is(err, types.ErrStoreClosed) || errors.Is(err, types.ErrNativeOperationFailed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, types.ErrNativeOperationFailed, err)
}
