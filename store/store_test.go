package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cnpbank/cnp/store"
)

func TestAccountStoreInsertFindUnique(t *testing.T) {
	s := new(store.AccountStore).New()

	acct := store.Account{First: "Alice", CustomerID: 42, Balance: 0}
	if err := s.InsertUnique(acct); err != nil {
		t.Fatalf("InsertUnique: %v", err)
	}
	if err := s.InsertUnique(acct); err != store.ErrAccountExists {
		t.Fatalf("second InsertUnique: err = %v, want ErrAccountExists", err)
	}

	got, err := s.Find(42)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.First != "Alice" {
		t.Fatalf("Find returned %+v", got)
	}

	if _, err := s.Find(99); err != store.ErrAccountNotFound {
		t.Fatalf("Find missing: err = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountStoreAdjustBalance(t *testing.T) {
	s := new(store.AccountStore).New()
	s.InsertUnique(store.Account{CustomerID: 1, Balance: 100})

	bal, err := s.AdjustBalance(1, 50)
	if err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	if bal != 150 {
		t.Fatalf("balance = %d, want 150", bal)
	}

	bal, err = s.AdjustBalance(1, -200)
	if err != store.ErrInsufficientFunds {
		t.Fatalf("AdjustBalance: err = %v, want ErrInsufficientFunds", err)
	}
	if bal != 150 {
		t.Fatalf("balance after refused adjustment = %d, want unchanged 150", bal)
	}
}

func TestAccountStoreDebitIfSufficient(t *testing.T) {
	s := new(store.AccountStore).New()
	s.InsertUnique(store.Account{CustomerID: 1, Balance: 100})

	bal, err := s.DebitIfSufficient(1, 40)
	if err != nil {
		t.Fatalf("DebitIfSufficient: %v", err)
	}
	if bal != 60 {
		t.Fatalf("balance = %d, want 60", bal)
	}

	bal, err = s.DebitIfSufficient(1, 1000)
	if err != store.ErrInsufficientFunds {
		t.Fatalf("DebitIfSufficient: err = %v, want ErrInsufficientFunds", err)
	}
	if bal != 60 {
		t.Fatalf("balance after refused debit = %d, want unchanged 60", bal)
	}

	if _, err := s.DebitIfSufficient(99, 1); err != store.ErrAccountNotFound {
		t.Fatalf("DebitIfSufficient on unknown account: err = %v, want ErrAccountNotFound", err)
	}
}

func TestSessionTableLifecycle(t *testing.T) {
	tbl := new(store.SessionTable).New()

	sess, err := tbl.Create(nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.State != store.StateConnected {
		t.Fatalf("state = %v, want StateConnected", sess.State)
	}

	if err := tbl.Mutate(sess.ClientID, func(s *store.Session) {
		s.State = store.StateLoggedOn
		s.CustomerID = 7
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	got, err := tbl.Find(sess.ClientID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.State != store.StateLoggedOn || got.CustomerID != 7 {
		t.Fatalf("session after mutate = %+v", got)
	}

	tbl.Remove(sess.ClientID)
	if _, err := tbl.Find(sess.ClientID); err != store.ErrSessionNotFound {
		t.Fatalf("Find after Remove: err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionTableNeverReusesFreedID(t *testing.T) {
	tbl := new(store.SessionTable).New()

	first, err := tbl.Create(nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ClientID != 1 {
		t.Fatalf("first client-id = %d, want 1", first.ClientID)
	}

	tbl.Remove(first.ClientID)

	second, err := tbl.Create(nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.ClientID != 2 {
		t.Fatalf("client-id after freeing id 1 = %d, want 2 (must never reuse a freed id)", second.ClientID)
	}
}

func TestTransactionLogAppendScan(t *testing.T) {
	l := new(store.TransactionLog).New()

	id1 := l.Append(1000, 500, 1, 42)
	id2 := l.Append(1001, 200, 2, 42)
	l.Append(1002, 900, 1, 99)

	if id1 != 1 || id2 != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", id1, id2)
	}

	got := l.Scan(0, 10, 42)
	if len(got) != 2 {
		t.Fatalf("Scan returned %d records, want 2", len(got))
	}

	// cache hit must reflect the same data
	again := l.Scan(0, 10, 42)
	if len(again) != 2 {
		t.Fatalf("cached Scan returned %d records, want 2", len(again))
	}

	// a new append for the same customer must invalidate the cached scan
	l.Append(1003, 50, 1, 42)
	got = l.Scan(0, 10, 42)
	if len(got) != 3 {
		t.Fatalf("Scan after append returned %d records, want 3", len(got))
	}
}

func TestTransactionLogScanMaxCount(t *testing.T) {
	l := new(store.TransactionLog).New()
	for i := 0; i < 5; i++ {
		l.Append(uint64(i), 10, 1, 1)
	}

	got := l.Scan(0, 2, 1)
	if len(got) != 2 {
		t.Fatalf("Scan with maxCount=2 returned %d records", len(got))
	}
}

func TestTransactionLogScanZeroCount(t *testing.T) {
	l := new(store.TransactionLog).New()
	l.Append(0, 10, 1, 1)

	got := l.Scan(0, 0, 1)
	if len(got) != 0 {
		t.Fatalf("Scan with maxCount=0 returned %d records, want 0", len(got))
	}
}

func TestPersistAccountsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.dat")

	want := []store.Account{
		{First: "Alice", Last: "Doe", Email: "a@example.com", Pin: 1234, SSN: 1, DLN: 2, CustomerID: 10, Balance: 500},
		{First: "Bob", Last: "Smith", Email: "b@example.com", Pin: 4321, SSN: 3, DLN: 4, CustomerID: 20, Balance: 0},
	}

	if err := store.SaveAccounts(path, want); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}

	got, err := store.LoadAccounts(path)
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d accounts, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("account %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadAccountsMissingFile(t *testing.T) {
	got, err := store.LoadAccounts(filepath.Join(t.TempDir(), "does-not-exist.dat"))
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestLoadAccountsTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.dat")

	if err := store.SaveAccounts(path, []store.Account{{First: "Alice", CustomerID: 1}}); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}

	// Append a partial second record to simulate a crash mid-write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.Write(make([]byte, 10)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	got, err := store.LoadAccounts(path)
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d accounts, want 1 (truncated tail dropped)", len(got))
	}
}

func TestTransactionLogRestoreDerivesNextID(t *testing.T) {
	l := new(store.TransactionLog).New()
	l.Restore([]store.Transaction{{ID: 5}, {ID: 2}, {ID: 9}})

	next := l.Append(0, 0, 0, 0)
	if next != 10 {
		t.Fatalf("next id after restore = %d, want 10", next)
	}
}
