package core

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// String satisfies fmt.Stringer for Header, used in log lines.
func (h Header) String() string {
	return fmt.Sprintf("Header{type=%#x(base=%#x,sub=%#x) len=%d client=%d seq=%d ctx=%d}",
		h.MsgType, MsgBase(h.MsgType), MsgSub(h.MsgType), h.DataLen, h.ClientID, h.Sequence, h.Context)
}

// String satisfies fmt.Stringer for ConnectRequest.
func (r ConnectRequest) String() string {
	return fmt.Sprintf("ConnectRequest{major=%d minor=%d key=%#x}", r.Major, r.Minor, r.ValidationKey)
}

// String satisfies fmt.Stringer for CreateAccountRequest. The pin is never
// logged.
func (r CreateAccountRequest) String() string {
	var b strings.Builder
	b.WriteString("CreateAccountRequest{")
	fmt.Fprintf(&b, "first=%q last=%q email=%q ssn=%d dln=%d", r.First, r.Last, r.Email, r.SSN, r.DLN)
	b.WriteString("}")
	return b.String()
}

// String satisfies fmt.Stringer for LogonRequest. The pin is never logged.
func (r LogonRequest) String() string {
	return fmt.Sprintf("LogonRequest{first=%q}", r.First)
}

// String satisfies fmt.Stringer for DepositRequest, rendering the amount
// for a human reader; the wire value stays an integer cent count.
func (r DepositRequest) String() string {
	return fmt.Sprintf("DepositRequest{amount=%s kind=%d}", humanize.Comma(int64(r.Amount)), r.Kind)
}

// String satisfies fmt.Stringer for AmountRequest.
func (r AmountRequest) String() string {
	return fmt.Sprintf("AmountRequest{amount=%s}", humanize.Comma(int64(r.Amount)))
}

// String satisfies fmt.Stringer for BalanceQueryResponse.
func (r BalanceQueryResponse) String() string {
	return fmt.Sprintf("BalanceQueryResponse{result=%s balance=%s}", ResultName(r.Result), humanize.Comma(int64(r.Balance)))
}

// String satisfies fmt.Stringer for ResultResponse.
func (r ResultResponse) String() string {
	return fmt.Sprintf("ResultResponse{result=%s}", ResultName(r.Result))
}

// String satisfies fmt.Stringer for TransactionQueryResponse.
func (r TransactionQueryResponse) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TransactionQueryResponse{result=%s records=%d}", ResultName(r.Result), len(r.Records))
	return b.String()
}
