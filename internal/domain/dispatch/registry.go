package dispatch

import (
	"fmt"

	"sleepvoice-server-go/internal/domain/speech"
)

// Registry is the ordered handler list. Order is the tie-break priority.
type Registry struct {
	handlers []speech.Handler
}

// NewRegistry builds the immutable registry, rejecting nil and duplicate handler types.
func NewRegistry(handlers ...speech.Handler) (*Registry, error) {
	seen := make(map[speech.HandlerType]bool, len(handlers))
	list := make([]speech.Handler, 0, len(handlers))
	for i, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("handler %d is nil", i)
		}
		if seen[h.Type()] {
			return nil, fmt.Errorf("duplicate handler type %s", h.Type())
		}
		seen[h.Type()] = true
		list = append(list, h)
	}
	return &Registry{handlers: list}, nil
}

// Handlers returns a copy in registration order.
func (r *Registry) Handlers() []speech.Handler {
	return append([]speech.Handler(nil), r.handlers...)
}

func (r *Registry) Len() int {
	return len(r.handlers)
}
