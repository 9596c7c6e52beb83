package components

import (
	"errors"
	"fmt"

	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/observability/log"
)

var ErrRelayConfig = errors.New("bus-relay: invalid configuration")

// BusRelay republishes every From event as a To event. It subscribes in Init and
// releases the subscription in Shutdown; while suspended events are dropped.
type BusRelay struct {
	component.Base

	From string `yaml:"from"`
	To   string `yaml:"to"`

	sub     bus.Subscription
	paused  bool
	relayed int
}

func (r *BusRelay) AttributeKeys() []string { return []string{"from", "to"} }

func (r *BusRelay) Init() error {
	if r.From == "" || r.To == "" || r.From == r.To {
		return fmt.Errorf("%w: from=%q to=%q", ErrRelayConfig, r.From, r.To)
	}
	if r.Events() == nil {
		return fmt.Errorf("%w: no event bus", ErrRelayConfig)
	}
	sub, err := r.Events().Subscribe(r.From, r.relay)
	if err != nil {
		return err
	}
	r.sub = sub
	return nil
}

func (r *BusRelay) relay(ev bus.Event) error {
	if r.paused {
		return nil
	}
	r.relayed++
	source := TypeBusRelay
	if r.Entity() != nil {
		source += ":" + r.Entity().Name()
	}
	return r.Events().Publish(bus.NewEvent(r.To, source, ev.Data(), map[string]any{
		"relayed_from": ev.Type(),
		"origin":       ev.Source(),
	}))
}

func (r *BusRelay) Suspend() error {
	r.paused = true
	return nil
}

func (r *BusRelay) Resume() error {
	r.paused = false
	return nil
}

func (r *BusRelay) Shutdown() error {
	if r.sub == nil {
		return nil
	}
	r.Logger().Debug("relay released", log.String("from", r.From), log.Int("relayed", r.relayed))
	err := r.sub.Cancel()
	r.sub = nil
	return err
}

// Relayed counts the events forwarded so far.
func (r *BusRelay) Relayed() int { return r.relayed }
