package chat

import (
	"CommLink/logger"
)

// Broadcaster publishes the full online-user set to every live
// connection on each registry mutation. Full snapshots every time, no
// deltas: fine at this scale, known not to scale to large connection
// counts.
type Broadcaster struct {
	reg *Registry
	fan *Fanout
}

func NewBroadcaster(reg *Registry, fan *Fanout) *Broadcaster {
	return &Broadcaster{reg: reg, fan: fan}
}

// Announce snapshots the registry and fans getOnlineUsers out to all
// connections, addressable or not.
func (b *Broadcaster) Announce() {
	users := b.reg.Snapshot()
	payload, err := BuildFrame(EventOnlineUsers, users)
	if err != nil {
		logger.Errorf("[presence] build announce frame: %v", err)
		return
	}
	b.fan.Broadcast(b.reg.Clients(), payload)
}
