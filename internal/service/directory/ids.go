package directory

import (
	"context"
	"errors"
	"math"
)

var errIDSpaceExhausted = errors.New("id space exhausted")

type idSource interface {
	MaxID(ctx context.Context) (int32, error)
}

// nextID allocates the next identifier for a collection: 1 when empty,
// otherwise the maximum key currently present plus one. A freed id below the
// current maximum is never handed out again; the slot vacated by deleting
// the top record is. Callers must hold the directory critical section so the
// read and the subsequent insert cannot race.
func nextID(ctx context.Context, src idSource) (int32, error) {
	max, err := src.MaxID(ctx)
	if err != nil {
		return 0, err
	}
	if max == math.MaxInt32 {
		return 0, errIDSpaceExhausted
	}
	return max + 1, nil
}
