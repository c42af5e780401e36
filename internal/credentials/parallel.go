package credentials

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/seanshin0214/kakaotalk-mcp/internal/container"
	"github.com/seanshin0214/kakaotalk-mcp/internal/keys"
	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

// findUserIDParallel runs the user id search across a fixed set of workers,
// worker w testing ids w, w+N, w+2N, ... The committed result is the
// globally smallest matching id, not the first to finish: each worker stops
// at its own first hit (its remaining ids can only be larger) or once its
// next id exceeds the current best, and the minimum across workers is taken
// after all of them settle. The outcome is therefore identical to the
// sequential search.
func (f *Finder) findUserIDParallel(ctx context.Context, pragma string, ciphertext []byte, maxAttempts int) (int, error) {
	workers := f.opts.Workers

	var (
		mu        sync.Mutex
		best      int
		firstErr  error
		attempted atomic.Int64
		wg        sync.WaitGroup
	)

	currentBest := func() int {
		mu.Lock()
		defer mu.Unlock()
		return best
	}

	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()

			for userID := start; userID <= maxAttempts; userID += workers {
				if b := currentBest(); b != 0 && b < userID {
					return
				}
				if ctx.Err() != nil {
					return
				}

				key, iv := keys.DeriveKeyAndIV(pragma, userID)
				window, err := f.engine.DecryptFirstWindow(key[:], iv[:], ciphertext)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}

				if container.IsValidHeader(window) {
					mu.Lock()
					if best == 0 || userID < best {
						best = userID
					}
					mu.Unlock()
					return
				}

				if n := attempted.Add(1); n%progressInterval == 0 {
					f.notify(int(n), maxAttempts)
				}
			}
		}(w)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	mu.Lock()
	defer mu.Unlock()
	if best != 0 {
		return best, nil
	}
	if firstErr != nil {
		return 0, firstErr
	}
	return 0, fmt.Errorf("%w: exhausted %d user ids", types.ErrCredentialsNotFound, maxAttempts)
}
