package network_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/cnpbank/cnp/core"
	"github.com/cnpbank/cnp/network"
	"github.com/cnpbank/cnp/store"
)

func newTestServer(t *testing.T) (*network.Server, string) {
	t.Helper()

	accounts := new(store.AccountStore).New()
	txlog := new(store.TransactionLog).New()
	sessions := new(store.SessionTable).New()

	srv := network.New(0, accounts, txlog, sessions)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)

	return srv, srv.Addr()
}

func dial(t *testing.T, addr string) *network.Client {
	t.Helper()
	c, err := network.Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func mustConnect(t *testing.T, c *network.Client) {
	t.Helper()
	resp, err := c.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if resp.Result != 0 {
		t.Fatalf("Connect result = %#x, want success", resp.Result)
	}
}

func TestConnectCreateAccountLogonDepositBalance(t *testing.T) {
	_, addr := newTestServer(t)
	c := dial(t, addr)
	mustConnect(t, c)

	if _, err := c.CreateAccount("Alice", "Doe", "alice@example.com", 1234, 1, 2); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if resp, err := c.Logon("Alice", 1234); err != nil || resp.Result != 0 {
		t.Fatalf("Logon: resp=%+v err=%v", resp, err)
	}

	if resp, err := c.Deposit(10000, 1); err != nil || resp.Result != 0 {
		t.Fatalf("Deposit: resp=%+v err=%v", resp, err)
	}

	bal, err := c.BalanceQuery()
	if err != nil {
		t.Fatalf("BalanceQuery: %v", err)
	}
	if bal.Balance != 10000 {
		t.Fatalf("balance = %d, want 10000", bal.Balance)
	}
}

func TestWithdrawalInsufficientFunds(t *testing.T) {
	_, addr := newTestServer(t)
	c := dial(t, addr)
	mustConnect(t, c)

	if _, err := c.CreateAccount("Bob", "Smith", "bob@example.com", 4321, 1, 2); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	resp, err := c.Withdraw(500)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if resp.Result == 0 {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got success")
	}
}

func TestOperationBeforeLoginRejected(t *testing.T) {
	_, addr := newTestServer(t)
	c := dial(t, addr)
	mustConnect(t, c)

	bal, err := c.BalanceQuery()
	if err != nil {
		t.Fatalf("BalanceQuery: %v", err)
	}
	if bal.Result == 0 {
		t.Fatalf("expected CLIENT_NOT_LOGGEDON before account creation/logon, got success")
	}
}

func TestLogonWrongPinRejected(t *testing.T) {
	_, addr := newTestServer(t)
	c := dial(t, addr)
	mustConnect(t, c)

	if _, err := c.CreateAccount("Carol", "Jones", "carol@example.com", 1111, 1, 2); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	c2 := dial(t, addr)
	mustConnect(t, c2)
	resp, err := c2.Logon("Carol", 9999)
	if err != nil {
		t.Fatalf("Logon: %v", err)
	}
	if resp.Result == 0 {
		t.Fatalf("expected ACCOUNT_NOT_FOUND for wrong pin, got success")
	}
}

func TestTransactionQueryReturnsOwnTransactionsOnly(t *testing.T) {
	_, addr := newTestServer(t)

	c1 := dial(t, addr)
	mustConnect(t, c1)
	c1.CreateAccount("Dave", "Lee", "dave@example.com", 2222, 1, 2)
	c1.Deposit(100, 1)
	c1.Deposit(200, 1)

	c2 := dial(t, addr)
	mustConnect(t, c2)
	c2.CreateAccount("Erin", "Kim", "erin@example.com", 3333, 1, 2)
	c2.Deposit(999, 1)

	txs, err := c1.TransactionQuery(0, 10)
	if err != nil {
		t.Fatalf("TransactionQuery: %v", err)
	}
	if len(txs.Records) != 2 {
		t.Fatalf("got %d records, want 2 (only Dave's own transactions)", len(txs.Records))
	}
	for _, r := range txs.Records {
		if r.Amount == 999 {
			t.Fatalf("transaction query leaked another customer's transaction")
		}
	}
}

func TestConnectWrongValidationKeyRejected(t *testing.T) {
	_, addr := newTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	reqHeader := core.Header{MsgType: core.MsgTypeOf(core.SubRequest, core.MsgConnect), DataLen: core.ConnectRequestSize, Sequence: 1}
	payload := make([]byte, core.ConnectRequestSize)
	core.ConnectRequest{Major: core.ServerMajor, Minor: core.ServerMinor, ValidationKey: 0xBAD}.Put(payload)

	out := make([]byte, core.HeaderSize+len(payload))
	reqHeader.Put(out[:core.HeaderSize])
	copy(out[core.HeaderSize:], payload)
	if _, err := conn.Write(out); err != nil {
		t.Fatalf("write: %v", err)
	}

	respHeaderBuf := make([]byte, core.HeaderSize)
	if _, err := io.ReadFull(conn, respHeaderBuf); err != nil {
		t.Fatalf("read header: %v", err)
	}
	respPayload := make([]byte, core.ConnectResponseSize)
	if _, err := io.ReadFull(conn, respPayload); err != nil {
		t.Fatalf("read payload: %v", err)
	}

	resp, err := core.DecodeConnectResponse(respPayload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result != core.AuthenticationFailed {
		t.Fatalf("result = %#x, want AUTHENTICATION_FAILED", resp.Result)
	}
}

func TestConnectBadDataLenDropsConnection(t *testing.T) {
	_, addr := newTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	reqHeader := core.Header{MsgType: core.MsgTypeOf(core.SubRequest, core.MsgConnect), DataLen: core.ConnectRequestSize - 1, Sequence: 1}
	payload := make([]byte, core.ConnectRequestSize)
	core.ConnectRequest{Major: core.ServerMajor, Minor: core.ServerMinor, ValidationKey: core.ValidationKey}.Put(payload)

	out := make([]byte, core.HeaderSize+len(payload))
	reqHeader.Put(out[:core.HeaderSize])
	copy(out[core.HeaderSize:], payload)
	if _, err := conn.Write(out); err != nil {
		t.Fatalf("write: %v", err)
	}

	respHeaderBuf := make([]byte, core.HeaderSize)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(conn, respHeaderBuf); err == nil {
		t.Fatalf("expected connection to be dropped on bad data_len, got a response")
	}
}
