package cache

// lruNode is an element of an lruList.
type lruNode struct {
	key        Key
	prev, next *lruNode
}

// lruList orders keys by recency. It is a circular list around a sentinel:
// root.next is the most recently used key, root.prev the least.
// Not safe for concurrent use.
type lruList struct {
	root lruNode
	len  int
}

func newLRUList() *lruList {
	l := &lruList{}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

func (l *lruList) Len() int { return l.len }

func (l *lruList) insertFront(n *lruNode) {
	n.prev = &l.root
	n.next = l.root.next
	l.root.next.prev = n
	l.root.next = n
	l.len++
}

func (l *lruList) unlink(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
	l.len--
}

// PushFront adds key as most recently used.
func (l *lruList) PushFront(key Key) *lruNode {
	n := &lruNode{key: key}
	l.insertFront(n)
	return n
}

// MoveToFront marks n as most recently used.
func (l *lruList) MoveToFront(n *lruNode) {
	if l.root.next == n {
		return
	}
	l.unlink(n)
	l.insertFront(n)
}

// Remove drops n.
func (l *lruList) Remove(n *lruNode) { l.unlink(n) }

// RemoveOldest drops the least recently used key and returns it.
func (l *lruList) RemoveOldest() (Key, bool) {
	if l.len == 0 {
		return Key{}, false
	}
	n := l.root.prev
	l.unlink(n)
	return n.key, true
}

// Clear drops every key.
func (l *lruList) Clear() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
}
