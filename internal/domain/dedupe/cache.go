package dedupe

import "container/list"

type windowEntry struct {
	key string
	ts  int64
}

// windowCache maps a signature key to the timestamp of its last accepted
// event. Entries are kept in update order so the stalest sit at the front;
// the cache never holds more than max entries.
type windowCache struct {
	items map[string]*list.Element
	order *list.List
	max   int
}

func newWindowCache(limit int) *windowCache {
	return &windowCache{
		items: make(map[string]*list.Element),
		order: list.New(),
		max:   limit,
	}
}

func (c *windowCache) last(key string) (int64, bool) {
	el, ok := c.items[key]
	if !ok {
		return 0, false
	}
	return el.Value.(*windowEntry).ts, true
}

// insert records ts for key and returns how many entries were pushed out to
// respect the size bound.
func (c *windowCache) insert(key string, ts int64) int {
	if el, ok := c.items[key]; ok {
		el.Value.(*windowEntry).ts = ts
		c.order.MoveToBack(el)
		return 0
	}

	evicted := 0
	for c.max > 0 && c.order.Len() >= c.max {
		c.removeFront()
		evicted++
	}
	c.items[key] = c.order.PushBack(&windowEntry{key: key, ts: ts})
	return evicted
}

// evictBefore drops entries whose timestamp is older than cutoff, walking
// from the stalest end until a fresh entry is found.
func (c *windowCache) evictBefore(cutoff int64) int {
	evicted := 0
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		if el.Value.(*windowEntry).ts >= cutoff {
			break
		}
		c.removeFront()
		evicted++
	}
	return evicted
}

func (c *windowCache) removeFront() {
	el := c.order.Front()
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.items, el.Value.(*windowEntry).key)
}

func (c *windowCache) len() int { return c.order.Len() }
