package store

import "fmt"

// Find returns the account for customerID, or ErrAccountNotFound.
func (s *AccountStore) Find(customerID uint64) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[customerID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

// InsertUnique inserts acct if no account exists for acct.CustomerID, or
// returns ErrAccountExists.
func (s *AccountStore) InsertUnique(acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acct.CustomerID]; ok {
		return ErrAccountExists
	}
	s.accounts[acct.CustomerID] = acct
	return nil
}

// AdjustBalance adds delta (which may be negative) to the account's
// balance, under the store's lock. It refuses an adjustment that would
// drive the balance negative, returning ErrInsufficientFunds and leaving
// the balance unchanged.
func (s *AccountStore) AdjustBalance(customerID uint64, delta int64) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[customerID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	newBalance := int64(acct.Balance) + delta
	if newBalance < 0 {
		return acct.Balance, ErrInsufficientFunds
	}
	acct.Balance = uint32(newBalance)
	s.accounts[acct.CustomerID] = acct
	return acct.Balance, nil
}

// DebitIfSufficient decrements the account's balance by amount in one
// critical section: the funds check and the decrement happen under the
// same lock acquisition, so two concurrent debits against the same
// account can never both pass the check. Returns ErrInsufficientFunds,
// leaving the balance unchanged, if amount exceeds the current balance.
func (s *AccountStore) DebitIfSufficient(customerID uint64, amount uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[customerID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	if acct.Balance < amount {
		return acct.Balance, ErrInsufficientFunds
	}
	acct.Balance -= amount
	s.accounts[acct.CustomerID] = acct
	return acct.Balance, nil
}

// Snapshot returns a copy of every account currently in the store, used by
// persistence and by admin inspection; it is not part of the wire
// protocol.
func (s *AccountStore) Snapshot() []Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct)
	}
	return out
}

// Restore replaces the store's contents with accts, used when loading from
// disk at startup.
func (s *AccountStore) Restore(accts []Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[uint64]Account, len(accts))
	for _, acct := range accts {
		s.accounts[acct.CustomerID] = acct
	}
}

// Inspect prints a tabular dump of every account to stdout.
func (s *AccountStore) Inspect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Printf("%-20s %-20s %-10s %-10s\n", "FIRST", "LAST", "CUSTOMER-ID", "BALANCE")
	for _, acct := range s.accounts {
		fmt.Printf("%-20s %-20s %-10d %-10d\n", acct.First, acct.Last, acct.CustomerID, acct.Balance)
	}
}
