package push

import (
	"log/slog"

	"github.com/roomly/roomly/internal/store"
)

// Notifier delivers out-of-band push notifications to a household's devices.
// Delivery is fire-and-forget: failures are logged, expired subscriptions
// are pruned, and nothing propagates back to the triggering operation.
type Notifier struct {
	svc    *Service
	subs   *store.PushStore
	logger *slog.Logger
}

func NewNotifier(svc *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{svc: svc, subs: subs, logger: logger}
}

// NotifyHousehold sends the payload to every device subscribed for the
// household, asynchronously. Safe to call on a nil Notifier (push disabled).
func (n *Notifier) NotifyHousehold(householdID int64, payload Payload) {
	if n == nil || n.svc == nil {
		return
	}
	go n.deliver(householdID, payload)
}

func (n *Notifier) deliver(householdID int64, payload Payload) {
	subs, err := n.subs.ListByHousehold(householdID)
	if err != nil {
		n.logger.Error("list push subscriptions", "household_id", householdID, "error", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		err := n.svc.Send(sub, payload)
		switch {
		case err == ErrExpired:
			if err := n.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				n.logger.Error("prune expired subscription", "id", sub.ID, "error", err)
			}
		case err != nil:
			n.logger.Warn("push delivery failed", "id", sub.ID, "error", err)
		}
	}
}
