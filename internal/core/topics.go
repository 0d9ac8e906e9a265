package core

import (
	"sync"

	"github.com/owndc/owndc/internal/domain"
)

// Topic names a chat conversation a connection must explicitly join before
// receiving its events, e.g. "channel:<id>" or "group:<id>".
type Topic string

func ChannelTopic(id domain.ChannelID) Topic { return Topic("channel:" + id) }
func GroupTopic(id domain.GroupID) Topic     { return Topic("group:" + id) }

// Topics tracks which identities subscribed to which chat topic. Delivery
// still goes through the Registry at publish time, so a subscription left
// behind by a dead connection resolves to nothing and is skipped.
type Topics struct {
	mu     sync.RWMutex
	subs   map[Topic]map[domain.UserID]struct{}
	ofUser map[domain.UserID]map[Topic]struct{}
}

func NewTopics() *Topics {
	return &Topics{
		subs:   make(map[Topic]map[domain.UserID]struct{}),
		ofUser: make(map[domain.UserID]map[Topic]struct{}),
	}
}

func (t *Topics) Subscribe(id domain.UserID, topic Topic) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs[topic] == nil {
		t.subs[topic] = make(map[domain.UserID]struct{})
	}
	t.subs[topic][id] = struct{}{}
	if t.ofUser[id] == nil {
		t.ofUser[id] = make(map[Topic]struct{})
	}
	t.ofUser[id][topic] = struct{}{}
}

func (t *Topics) Unsubscribe(id domain.UserID, topic Topic) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unsubscribeLocked(id, topic)
}

func (t *Topics) unsubscribeLocked(id domain.UserID, topic Topic) {
	if members := t.subs[topic]; members != nil {
		delete(members, id)
		if len(members) == 0 {
			delete(t.subs, topic)
		}
	}
	if topics := t.ofUser[id]; topics != nil {
		delete(topics, topic)
		if len(topics) == 0 {
			delete(t.ofUser, id)
		}
	}
}

// UnsubscribeAll drops every subscription held by id, in the disconnect path.
func (t *Topics) UnsubscribeAll(id domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for topic := range t.ofUser[id] {
		t.unsubscribeLocked(id, topic)
	}
}

func (t *Topics) Subscribers(topic Topic) []domain.UserID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members := t.subs[topic]
	out := make([]domain.UserID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}
