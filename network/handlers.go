package network

import (
	"log"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/cnpbank/cnp/core"
	"github.com/cnpbank/cnp/store"
)

// dispatchResult carries a handler's response back to the dispatch loop:
// the base message type to reply with and the encoded payload.
type dispatchResult struct {
	respBase uint32
	payload  []byte
}

func result(base uint32, payload []byte) dispatchResult {
	return dispatchResult{respBase: base, payload: payload}
}

// dispatch routes one decoded request to its handler. sess is a pointer to
// the caller's session variable: CONNECT is the only request that may
// assign it.
func (s *Server) dispatch(workerID uuid.UUID, base uint32, req core.Header, payload []byte, conn net.Conn, sess **store.Session) dispatchResult {
	if base == core.MsgConnect {
		return s.handleConnect(workerID, req, payload, conn, sess)
	}

	if *sess == nil {
		return errorResult(base, core.InvalidClientID)
	}

	switch base {
	case core.MsgCreateAccount:
		return s.handleCreateAccount(req, payload, *sess)
	case core.MsgLogon:
		return s.handleLogon(req, payload, *sess)
	case core.MsgLogoff:
		return s.handleLogoff(*sess)
	case core.MsgDeposit:
		return s.handleDeposit(req, payload, *sess)
	case core.MsgWithdrawal:
		return s.handleWithdrawal(req, payload, *sess)
	case core.MsgPurchaseStamps:
		return s.handleStampPurchase(req, payload, *sess)
	case core.MsgBalanceQuery:
		return s.handleBalanceQuery(*sess)
	case core.MsgTransactionQuery:
		return s.handleTransactionQuery(req, payload, *sess)
	default:
		return errorResult(base, core.ErrorResult)
	}
}

func errorResult(base uint32, code uint32) dispatchResult {
	resp := core.ResultResponse{Result: code}
	if code != core.Success {
		log.Printf("%s", resp)
	}
	buf := make([]byte, core.ResultResponseSize)
	resp.Put(buf)
	return result(base, buf)
}

func (s *Server) handleConnect(workerID uuid.UUID, req core.Header, payload []byte, conn net.Conn, sess **store.Session) dispatchResult {
	creq, err := core.DecodeConnectRequest(payload)
	if err != nil {
		return errorResult(core.MsgConnect, core.ErrorResult)
	}
	log.Printf("worker %s: %s", workerID, creq)

	var result32 uint32 = core.Success
	switch {
	case creq.ValidationKey != core.ValidationKey:
		result32 = core.AuthenticationFailed
	case creq.Major > core.ServerMajor || (creq.Major == core.ServerMajor && creq.Minor > core.ServerMinor):
		result32 = core.UnsupportedProtocol
	}

	if result32 != core.Success {
		buf := make([]byte, core.ConnectResponseSize)
		core.ConnectResponse{Result: result32, Major: core.ServerMajor, Minor: core.ServerMinor}.Put(buf)
		return result(core.MsgConnect, buf)
	}

	newSess, err := s.sessions.Create(conn)
	if err != nil {
		log.Printf("worker %s: %v", workerID, err)
		buf := make([]byte, core.ConnectResponseSize)
		core.ConnectResponse{Result: core.ErrorResult, Major: core.ServerMajor, Minor: core.ServerMinor}.Put(buf)
		return result(core.MsgConnect, buf)
	}
	*sess = newSess

	buf := make([]byte, core.ConnectResponseSize)
	core.ConnectResponse{Result: core.Success, Major: core.ServerMajor, Minor: core.ServerMinor, ClientID: newSess.ClientID}.Put(buf)
	return result(core.MsgConnect, buf)
}

func (s *Server) handleCreateAccount(req core.Header, payload []byte, sess *store.Session) dispatchResult {
	creq, err := core.DecodeCreateAccountRequest(payload)
	if err != nil {
		return errorResult(core.MsgCreateAccount, core.ErrorResult)
	}
	log.Printf("%s", creq)

	if creq.First == "" || creq.Pin == core.InvalidPin {
		return errorResult(core.MsgCreateAccount, core.InvalidNamePin)
	}

	customerID := core.CustomerID(creq.First, creq.Pin)
	err = s.accounts.InsertUnique(store.Account{
		First:      creq.First,
		Last:       creq.Last,
		Email:      creq.Email,
		Pin:        creq.Pin,
		SSN:        creq.SSN,
		DLN:        creq.DLN,
		CustomerID: customerID,
		Balance:    0,
	})
	if err == store.ErrAccountExists {
		return errorResult(core.MsgCreateAccount, core.AccountExists)
	}

	s.sessions.Mutate(sess.ClientID, func(sn *store.Session) {
		sn.State = store.StateAccountCreated
		sn.CustomerID = customerID
	})

	buf := make([]byte, core.CreateAccountResponseSize)
	core.CreateAccountResponse{Result: core.Success}.Put(buf)
	return result(core.MsgCreateAccount, buf)
}

func (s *Server) handleLogon(req core.Header, payload []byte, sess *store.Session) dispatchResult {
	lreq, err := core.DecodeLogonRequest(payload)
	if err != nil {
		return errorResult(core.MsgLogon, core.ErrorResult)
	}
	log.Printf("%s", lreq)

	if lreq.First == "" || lreq.Pin == core.InvalidPin {
		return errorResult(core.MsgLogon, core.InvalidNamePin)
	}

	customerID := core.CustomerID(lreq.First, lreq.Pin)
	if _, err := s.accounts.Find(customerID); err == store.ErrAccountNotFound {
		return errorResult(core.MsgLogon, core.AccountNotFound)
	}

	s.sessions.Mutate(sess.ClientID, func(sn *store.Session) {
		sn.State = store.StateLoggedOn
		sn.CustomerID = customerID
	})

	return errorResult(core.MsgLogon, core.Success)
}

func (s *Server) handleLogoff(sess *store.Session) dispatchResult {
	if sess.CustomerID == core.InvalidCustomerID {
		return errorResult(core.MsgLogoff, core.ClientNotLoggedOn)
	}

	s.sessions.Mutate(sess.ClientID, func(sn *store.Session) {
		sn.CustomerID = core.InvalidCustomerID
		sn.State = store.StateLoggedOff
	})

	return errorResult(core.MsgLogoff, core.Success)
}

// boundCustomerID reads the customer-id a session's own connection bound
// it to. sess is owned exclusively by the connection's single dispatch
// goroutine, so this is safe to read without the session table's lock —
// only that goroutine ever calls Mutate on this session.
func (s *Server) boundCustomerID(sess *store.Session) (uint64, bool) {
	if sess.CustomerID == core.InvalidCustomerID {
		return 0, false
	}
	return sess.CustomerID, true
}

func (s *Server) handleDeposit(req core.Header, payload []byte, sess *store.Session) dispatchResult {
	dreq, err := core.DecodeDepositRequest(payload)
	if err != nil {
		return errorResult(core.MsgDeposit, core.ErrorResult)
	}

	customerID, ok := s.boundCustomerID(sess)
	if !ok {
		return errorResult(core.MsgDeposit, core.ClientNotLoggedOn)
	}
	if _, err := s.accounts.Find(customerID); err == store.ErrAccountNotFound {
		return errorResult(core.MsgDeposit, core.AccountNotFound)
	}

	s.accounts.AdjustBalance(customerID, int64(dreq.Amount))
	s.txlog.Append(nowUnix(), dreq.Amount, core.TTDeposit, customerID)

	log.Printf("%s to customer %d", dreq, customerID)
	return errorResult(core.MsgDeposit, core.Success)
}

func (s *Server) handleWithdrawal(req core.Header, payload []byte, sess *store.Session) dispatchResult {
	wreq, err := core.DecodeAmountRequest(payload)
	if err != nil {
		return errorResult(core.MsgWithdrawal, core.ErrorResult)
	}
	log.Printf("withdrawal %s", wreq)
	return s.debit(core.MsgWithdrawal, core.TTWithdrawal, wreq.Amount, sess)
}

func (s *Server) handleStampPurchase(req core.Header, payload []byte, sess *store.Session) dispatchResult {
	preq, err := core.DecodeAmountRequest(payload)
	if err != nil {
		return errorResult(core.MsgPurchaseStamps, core.ErrorResult)
	}
	log.Printf("stamp purchase %s", preq)
	return s.debit(core.MsgPurchaseStamps, core.TTStampPurchase, preq.Amount, sess)
}

func (s *Server) debit(base uint32, txType uint16, amount uint32, sess *store.Session) dispatchResult {
	customerID, ok := s.boundCustomerID(sess)
	if !ok {
		return errorResult(base, core.ClientNotLoggedOn)
	}

	// The funds check and the decrement happen in one critical section
	// inside DebitIfSufficient, so two concurrent debits against the same
	// customer-id can never both pass the check and drive the balance
	// negative.
	if _, err := s.accounts.DebitIfSufficient(customerID, amount); err != nil {
		switch err {
		case store.ErrAccountNotFound:
			return errorResult(base, core.AccountNotFound)
		case store.ErrInsufficientFunds:
			return errorResult(base, core.InsufficientFunds)
		default:
			return errorResult(base, core.ErrorResult)
		}
	}

	s.txlog.Append(nowUnix(), amount, txType, customerID)

	return errorResult(base, core.Success)
}

func (s *Server) handleBalanceQuery(sess *store.Session) dispatchResult {
	customerID, ok := s.boundCustomerID(sess)
	if !ok {
		buf := make([]byte, core.BalanceQueryResponseSize)
		core.BalanceQueryResponse{Result: core.ClientNotLoggedOn}.Put(buf)
		return result(core.MsgBalanceQuery, buf)
	}
	acct, err := s.accounts.Find(customerID)
	if err == store.ErrAccountNotFound {
		buf := make([]byte, core.BalanceQueryResponseSize)
		core.BalanceQueryResponse{Result: core.AccountNotFound}.Put(buf)
		return result(core.MsgBalanceQuery, buf)
	}

	resp := core.BalanceQueryResponse{Result: core.Success, Balance: acct.Balance}
	log.Printf("%s", resp)
	buf := make([]byte, core.BalanceQueryResponseSize)
	resp.Put(buf)
	return result(core.MsgBalanceQuery, buf)
}

func (s *Server) handleTransactionQuery(req core.Header, payload []byte, sess *store.Session) dispatchResult {
	treq, err := core.DecodeTransactionQueryRequest(payload)
	if err != nil {
		return errorResult(core.MsgTransactionQuery, core.ErrorResult)
	}

	customerID, ok := s.boundCustomerID(sess)
	if !ok {
		resp := core.TransactionQueryResponse{Result: core.ClientNotLoggedOn}
		buf := make([]byte, resp.Size())
		resp.Put(buf)
		return result(core.MsgTransactionQuery, buf)
	}
	if _, err := s.accounts.Find(customerID); err == store.ErrAccountNotFound {
		resp := core.TransactionQueryResponse{Result: core.AccountNotFound}
		buf := make([]byte, resp.Size())
		resp.Put(buf)
		return result(core.MsgTransactionQuery, buf)
	}

	records := s.txlog.Scan(treq.StartID, treq.Count, customerID)
	recs := make([]core.TxRecord, len(records))
	for i, r := range records {
		recs[i] = core.TxRecord{ID: r.ID, DateTime: r.DateTime, Amount: r.Amount, Type: r.Type}
	}

	resp := core.TransactionQueryResponse{Result: core.Success, Records: recs}
	log.Printf("%s", resp)
	buf := make([]byte, resp.Size())
	resp.Put(buf)
	return result(core.MsgTransactionQuery, buf)
}

func nowUnix() uint64 {
	return uint64(time.Now().Unix())
}
