package publisher

import (
	"context"
	"errors"

	"github.com/radieske/spin-wheel-settlement/internal/settlement"
)

// Fanout entrega o evento a todos os notifiers e junta os erros
type Fanout []settlement.Notifier

func (f Fanout) Publish(ctx context.Context, ev settlement.Event) error {
	var errs []error
	for _, n := range f {
		if err := n.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
