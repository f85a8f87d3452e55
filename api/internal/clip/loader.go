package clip

import (
	"context"
	"errors"
	"fmt"
)

// ReadyChecker is implemented by engines that can tell whether their
// model is actually resident on the hosting side.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Load walks the candidate model IDs in order and returns an engine for
// the first one whose model is ready. Candidates that do not implement
// ReadyChecker are accepted as-is. Exhausting the list is a startup
// error; the caller is expected to treat it as fatal.
func Load(ctx context.Context, dial func(modelID string) Engine, modelIDs ...string) (Engine, error) {
	if len(modelIDs) == 0 {
		return nil, errors.New("no model candidates configured")
	}
	var errs []error
	for _, id := range modelIDs {
		eng := dial(id)
		if rc, ok := eng.(ReadyChecker); ok {
			if err := rc.Ready(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				continue
			}
		}
		return eng, nil
	}
	return nil, fmt.Errorf("no scoring model could be loaded: %w", errors.Join(errs...))
}
