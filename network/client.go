package network

import (
	"io"
	"net"
	"time"

	"github.com/cnpbank/cnp/core"
)

// Client is a one-shot protocol client: each method writes one request and
// reads back its response. It is not an interactive REPL.
type Client struct {
	conn     net.Conn
	clientID uint16
	sequence uint32
}

// Dial connects to a bank server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, clientID: core.InvalidClientIDValue}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(base uint32, payload []byte, respSize int) (core.Header, []byte, error) {
	c.sequence++
	req := core.Header{
		MsgType:  core.MsgTypeOf(core.SubRequest, base),
		DataLen:  uint16(len(payload)),
		ClientID: c.clientID,
		Sequence: c.sequence,
	}

	out := make([]byte, core.HeaderSize+len(payload))
	req.Put(out[:core.HeaderSize])
	copy(out[core.HeaderSize:], payload)

	if _, err := c.conn.Write(out); err != nil {
		return core.Header{}, nil, err
	}

	respHeader := make([]byte, core.HeaderSize)
	if _, err := io.ReadFull(c.conn, respHeader); err != nil {
		return core.Header{}, nil, err
	}
	h, err := core.ParseHeader(respHeader)
	if err != nil {
		return core.Header{}, nil, err
	}

	size := respSize
	if size < 0 {
		size = int(h.DataLen)
	}
	respPayload := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(c.conn, respPayload); err != nil {
			return core.Header{}, nil, err
		}
	}

	return h, respPayload, nil
}

// Connect performs CONNECT and, on success, remembers the assigned
// client-id for every subsequent request on this connection.
func (c *Client) Connect() (core.ConnectResponse, error) {
	payload := make([]byte, core.ConnectRequestSize)
	core.ConnectRequest{Major: core.ServerMajor, Minor: core.ServerMinor, ValidationKey: core.ValidationKey}.Put(payload)

	_, respPayload, err := c.roundTrip(core.MsgConnect, payload, core.ConnectResponseSize)
	if err != nil {
		return core.ConnectResponse{}, err
	}
	resp, err := core.DecodeConnectResponse(respPayload)
	if err != nil {
		return core.ConnectResponse{}, err
	}
	if resp.Result == core.Success {
		c.clientID = resp.ClientID
	}
	return resp, nil
}

// CreateAccount performs CREATE_ACCOUNT.
func (c *Client) CreateAccount(first, last, email string, pin uint16, ssn, dln uint32) (core.CreateAccountResponse, error) {
	payload := make([]byte, core.CreateAccountRequestSize)
	if err := (core.CreateAccountRequest{First: first, Last: last, Email: email, Pin: pin, SSN: ssn, DLN: dln}).Put(payload); err != nil {
		return core.CreateAccountResponse{}, err
	}
	_, respPayload, err := c.roundTrip(core.MsgCreateAccount, payload, core.CreateAccountResponseSize)
	if err != nil {
		return core.CreateAccountResponse{}, err
	}
	return core.DecodeCreateAccountResponse(respPayload)
}

// Logon performs LOGON.
func (c *Client) Logon(first string, pin uint16) (core.ResultResponse, error) {
	payload := make([]byte, core.LogonRequestSize)
	if err := (core.LogonRequest{First: first, Pin: pin}).Put(payload); err != nil {
		return core.ResultResponse{}, err
	}
	_, respPayload, err := c.roundTrip(core.MsgLogon, payload, core.ResultResponseSize)
	if err != nil {
		return core.ResultResponse{}, err
	}
	return core.DecodeResultResponse(respPayload)
}

// Logoff performs LOGOFF.
func (c *Client) Logoff() (core.ResultResponse, error) {
	_, respPayload, err := c.roundTrip(core.MsgLogoff, nil, core.ResultResponseSize)
	if err != nil {
		return core.ResultResponse{}, err
	}
	return core.DecodeResultResponse(respPayload)
}

// Deposit performs DEPOSIT.
func (c *Client) Deposit(amount uint32, kind uint16) (core.ResultResponse, error) {
	payload := make([]byte, core.DepositRequestSize)
	core.DepositRequest{Amount: amount, Kind: kind}.Put(payload)
	_, respPayload, err := c.roundTrip(core.MsgDeposit, payload, core.ResultResponseSize)
	if err != nil {
		return core.ResultResponse{}, err
	}
	return core.DecodeResultResponse(respPayload)
}

// Withdraw performs WITHDRAWAL.
func (c *Client) Withdraw(amount uint32) (core.ResultResponse, error) {
	return c.amountOp(core.MsgWithdrawal, amount)
}

// PurchaseStamps performs STAMP_PURCHASE.
func (c *Client) PurchaseStamps(amount uint32) (core.ResultResponse, error) {
	return c.amountOp(core.MsgPurchaseStamps, amount)
}

func (c *Client) amountOp(base uint32, amount uint32) (core.ResultResponse, error) {
	payload := make([]byte, core.AmountRequestSize)
	core.AmountRequest{Amount: amount}.Put(payload)
	_, respPayload, err := c.roundTrip(base, payload, core.ResultResponseSize)
	if err != nil {
		return core.ResultResponse{}, err
	}
	return core.DecodeResultResponse(respPayload)
}

// BalanceQuery performs BALANCE_QUERY.
func (c *Client) BalanceQuery() (core.BalanceQueryResponse, error) {
	_, respPayload, err := c.roundTrip(core.MsgBalanceQuery, nil, core.BalanceQueryResponseSize)
	if err != nil {
		return core.BalanceQueryResponse{}, err
	}
	return core.DecodeBalanceQueryResponse(respPayload)
}

// TransactionQuery performs TRANSACTION_QUERY.
func (c *Client) TransactionQuery(startID uint32, count uint16) (core.TransactionQueryResponse, error) {
	payload := make([]byte, core.TransactionQueryRequestSize)
	core.TransactionQueryRequest{StartID: startID, Count: count}.Put(payload)
	_, respPayload, err := c.roundTrip(core.MsgTransactionQuery, payload, -1)
	if err != nil {
		return core.TransactionQueryResponse{}, err
	}
	return core.DecodeTransactionQueryResponse(respPayload)
}

// Addr returns the remote address the client is connected to, for logging.
func (c *Client) Addr() string {
	return c.conn.RemoteAddr().String()
}
