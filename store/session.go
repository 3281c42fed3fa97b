package store

import "net"

// Create allocates a new session bound to conn and returns it. The
// client-id assigned is one greater than the largest one ever handed out
// by this table (1 if none have been), computed and inserted under a
// single lock acquisition. A client-id is never reused once freed, so the
// process has a hard lifetime cap of 0xFFFE (65534) sessions; once that
// cap is reached, Create returns ErrSessionsFull.
func (t *SessionTable) Create(conn net.Conn) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nextID == 0xFFFF {
		return nil, ErrSessionsFull
	}

	id := t.nextID
	t.nextID++

	sess := &Session{ClientID: id, State: StateConnected, Conn: conn}
	t.sessions[id] = sess
	return sess, nil
}

// Find returns the session for clientID, or ErrSessionNotFound.
func (t *SessionTable) Find(clientID uint16) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[clientID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Mutate runs fn against the session for clientID under the table's lock,
// so state transitions and the bound customer-id are always updated
// atomically with respect to lookups from other connections.
func (t *SessionTable) Mutate(clientID uint16, fn func(*Session)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[clientID]
	if !ok {
		return ErrSessionNotFound
	}
	fn(sess)
	return nil
}

// Remove deletes the session for clientID. It is not an error to remove a
// session that does not exist.
func (t *SessionTable) Remove(clientID uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.sessions, clientID)
}

// Count returns the number of live sessions.
func (t *SessionTable) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.sessions)
}
