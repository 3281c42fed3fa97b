package core

import (
	"encoding/binary"
	"errors"
)

// Errors returned by the codec. A decode error is always fatal to the
// connection (spec §7): the dispatcher never responds to one, it drops it.
var (
	ErrTruncated     = errors.New("core: frame truncated")
	ErrUnknownMsg    = errors.New("core: unknown message type")
	ErrBadDataLen    = errors.New("core: data_len does not match message type")
	ErrStringTooLong = errors.New("core: fixed string field overflow")
)

// Header is the 16-byte frame header present on every message.
type Header struct {
	MsgType  uint32
	DataLen  uint16
	ClientID uint16
	Sequence uint32
	Context  uint32
}

// Put encodes h little-endian into dst[0:HeaderSize]. dst must be at least
// HeaderSize bytes.
func (h Header) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], h.MsgType)
	binary.LittleEndian.PutUint16(dst[4:6], h.DataLen)
	binary.LittleEndian.PutUint16(dst[6:8], h.ClientID)
	binary.LittleEndian.PutUint32(dst[8:12], h.Sequence)
	binary.LittleEndian.PutUint32(dst[12:16], h.Context)
}

// ParseHeader decodes a Header from the first HeaderSize bytes of src.
func ParseHeader(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, ErrTruncated
	}
	return Header{
		MsgType:  binary.LittleEndian.Uint32(src[0:4]),
		DataLen:  binary.LittleEndian.Uint16(src[4:6]),
		ClientID: binary.LittleEndian.Uint16(src[6:8]),
		Sequence: binary.LittleEndian.Uint32(src[8:12]),
		Context:  binary.LittleEndian.Uint32(src[12:16]),
	}, nil
}

// Reply builds the header for a response to req: same client-id, sequence
// and context, msg_type set to the RESPONSE sub-type of base.
func (req Header) Reply(base uint32, clientID uint16) Header {
	return Header{
		MsgType:  MsgTypeOf(SubResponse, base),
		ClientID: clientID,
		Sequence: req.Sequence,
		Context:  req.Context,
	}
}

// putFixedString writes s NUL-padded/NUL-terminated into dst[:size]. s must
// fit with room for the terminator.
func putFixedString(dst []byte, s string, size int) error {
	if len(s) > size-1 {
		return ErrStringTooLong
	}
	for i := range dst[:size] {
		dst[i] = 0
	}
	copy(dst, s)
	return nil
}

// getFixedString reads a NUL-terminated string out of a fixed-size field.
func getFixedString(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}

//
// Request payloads.
//

// ConnectRequest: major:W, minor:W, validation-key:D (8 bytes).
type ConnectRequest struct {
	Major         uint16
	Minor         uint16
	ValidationKey uint32
}

const ConnectRequestSize = 8

func (r ConnectRequest) Put(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], r.Major)
	binary.LittleEndian.PutUint16(dst[2:4], r.Minor)
	binary.LittleEndian.PutUint32(dst[4:8], r.ValidationKey)
}

func DecodeConnectRequest(src []byte) (ConnectRequest, error) {
	if len(src) < ConnectRequestSize {
		return ConnectRequest{}, ErrTruncated
	}
	return ConnectRequest{
		Major:         binary.LittleEndian.Uint16(src[0:2]),
		Minor:         binary.LittleEndian.Uint16(src[2:4]),
		ValidationKey: binary.LittleEndian.Uint32(src[4:8]),
	}, nil
}

// ConnectResponse: result:D, major:W, minor:W, client-id:W (10 bytes).
type ConnectResponse struct {
	Result   uint32
	Major    uint16
	Minor    uint16
	ClientID uint16
}

const ConnectResponseSize = 10

func (r ConnectResponse) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.Result)
	binary.LittleEndian.PutUint16(dst[4:6], r.Major)
	binary.LittleEndian.PutUint16(dst[6:8], r.Minor)
	binary.LittleEndian.PutUint16(dst[8:10], r.ClientID)
}

func DecodeConnectResponse(src []byte) (ConnectResponse, error) {
	if len(src) < ConnectResponseSize {
		return ConnectResponse{}, ErrTruncated
	}
	return ConnectResponse{
		Result:   binary.LittleEndian.Uint32(src[0:4]),
		Major:    binary.LittleEndian.Uint16(src[4:6]),
		Minor:    binary.LittleEndian.Uint16(src[6:8]),
		ClientID: binary.LittleEndian.Uint16(src[8:10]),
	}, nil
}

// CreateAccountRequest: first[32], last[32], email[32], pin:W, ssn:D, dln:D (106 bytes).
type CreateAccountRequest struct {
	First string
	Last  string
	Email string
	Pin   uint16
	SSN   uint32
	DLN   uint32
}

const CreateAccountRequestSize = 32 + 32 + 32 + 2 + 4 + 4

func (r CreateAccountRequest) Put(dst []byte) error {
	if err := putFixedString(dst[0:32], r.First, NameFieldSize); err != nil {
		return err
	}
	if err := putFixedString(dst[32:64], r.Last, NameFieldSize); err != nil {
		return err
	}
	if err := putFixedString(dst[64:96], r.Email, NameFieldSize); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(dst[96:98], r.Pin)
	binary.LittleEndian.PutUint32(dst[98:102], r.SSN)
	binary.LittleEndian.PutUint32(dst[102:106], r.DLN)
	return nil
}

func DecodeCreateAccountRequest(src []byte) (CreateAccountRequest, error) {
	if len(src) < CreateAccountRequestSize {
		return CreateAccountRequest{}, ErrTruncated
	}
	return CreateAccountRequest{
		First: getFixedString(src[0:32]),
		Last:  getFixedString(src[32:64]),
		Email: getFixedString(src[64:96]),
		Pin:   binary.LittleEndian.Uint16(src[96:98]),
		SSN:   binary.LittleEndian.Uint32(src[98:102]),
		DLN:   binary.LittleEndian.Uint32(src[102:106]),
	}, nil
}

// CreateAccountResponse: result:D (4 bytes).
type CreateAccountResponse struct {
	Result uint32
}

const CreateAccountResponseSize = 4

func (r CreateAccountResponse) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.Result)
}

func DecodeCreateAccountResponse(src []byte) (CreateAccountResponse, error) {
	if len(src) < CreateAccountResponseSize {
		return CreateAccountResponse{}, ErrTruncated
	}
	return CreateAccountResponse{Result: binary.LittleEndian.Uint32(src[0:4])}, nil
}

// LogonRequest: first[32], pin:W (34 bytes).
type LogonRequest struct {
	First string
	Pin   uint16
}

const LogonRequestSize = 32 + 2

func (r LogonRequest) Put(dst []byte) error {
	if err := putFixedString(dst[0:32], r.First, NameFieldSize); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(dst[32:34], r.Pin)
	return nil
}

func DecodeLogonRequest(src []byte) (LogonRequest, error) {
	if len(src) < LogonRequestSize {
		return LogonRequest{}, ErrTruncated
	}
	return LogonRequest{
		First: getFixedString(src[0:32]),
		Pin:   binary.LittleEndian.Uint16(src[32:34]),
	}, nil
}

// LogonResponse / LogoffResponse / DepositResponse / WithdrawalResponse /
// StampPurchaseResponse all share the same shape: result:D (4 bytes).
type ResultResponse struct {
	Result uint32
}

const ResultResponseSize = 4

func (r ResultResponse) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.Result)
}

func DecodeResultResponse(src []byte) (ResultResponse, error) {
	if len(src) < ResultResponseSize {
		return ResultResponse{}, ErrTruncated
	}
	return ResultResponse{Result: binary.LittleEndian.Uint32(src[0:4])}, nil
}

// LogoffRequest carries no payload.

// DepositRequest: amount:D, kind:W (6 bytes).
type DepositRequest struct {
	Amount uint32
	Kind   uint16
}

const DepositRequestSize = 4 + 2

func (r DepositRequest) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.Amount)
	binary.LittleEndian.PutUint16(dst[4:6], r.Kind)
}

func DecodeDepositRequest(src []byte) (DepositRequest, error) {
	if len(src) < DepositRequestSize {
		return DepositRequest{}, ErrTruncated
	}
	return DepositRequest{
		Amount: binary.LittleEndian.Uint32(src[0:4]),
		Kind:   binary.LittleEndian.Uint16(src[4:6]),
	}, nil
}

// WithdrawalRequest / StampPurchaseRequest: amount:D (4 bytes).
type AmountRequest struct {
	Amount uint32
}

const AmountRequestSize = 4

func (r AmountRequest) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.Amount)
}

func DecodeAmountRequest(src []byte) (AmountRequest, error) {
	if len(src) < AmountRequestSize {
		return AmountRequest{}, ErrTruncated
	}
	return AmountRequest{Amount: binary.LittleEndian.Uint32(src[0:4])}, nil
}

// BalanceQueryRequest carries no payload.

// BalanceQueryResponse: result:D, balance:D (8 bytes).
type BalanceQueryResponse struct {
	Result  uint32
	Balance uint32
}

const BalanceQueryResponseSize = 8

func (r BalanceQueryResponse) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.Result)
	binary.LittleEndian.PutUint32(dst[4:8], r.Balance)
}

func DecodeBalanceQueryResponse(src []byte) (BalanceQueryResponse, error) {
	if len(src) < BalanceQueryResponseSize {
		return BalanceQueryResponse{}, ErrTruncated
	}
	return BalanceQueryResponse{
		Result:  binary.LittleEndian.Uint32(src[0:4]),
		Balance: binary.LittleEndian.Uint32(src[4:8]),
	}, nil
}

// TransactionQueryRequest: start-id:D, count:W (6 bytes).
type TransactionQueryRequest struct {
	StartID uint32
	Count   uint16
}

const TransactionQueryRequestSize = 4 + 2

func (r TransactionQueryRequest) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.StartID)
	binary.LittleEndian.PutUint16(dst[4:6], r.Count)
}

func DecodeTransactionQueryRequest(src []byte) (TransactionQueryRequest, error) {
	if len(src) < TransactionQueryRequestSize {
		return TransactionQueryRequest{}, ErrTruncated
	}
	return TransactionQueryRequest{
		StartID: binary.LittleEndian.Uint32(src[0:4]),
		Count:   binary.LittleEndian.Uint16(src[4:6]),
	}, nil
}

// TxRecord is one fixed 18-byte record within a TRANSACTION_QUERY_RESPONSE:
// id:D, datetime:Q, amount:D, type:W.
type TxRecord struct {
	ID       uint32
	DateTime uint64
	Amount   uint32
	Type     uint16
}

func (r TxRecord) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.ID)
	binary.LittleEndian.PutUint64(dst[4:12], r.DateTime)
	binary.LittleEndian.PutUint32(dst[12:16], r.Amount)
	binary.LittleEndian.PutUint16(dst[16:18], r.Type)
}

func decodeTxRecord(src []byte) TxRecord {
	return TxRecord{
		ID:       binary.LittleEndian.Uint32(src[0:4]),
		DateTime: binary.LittleEndian.Uint64(src[4:12]),
		Amount:   binary.LittleEndian.Uint32(src[12:16]),
		Type:     binary.LittleEndian.Uint16(src[16:18]),
	}
}

// TransactionQueryResponse: result:D, n:W, then n TxRecords.
type TransactionQueryResponse struct {
	Result  uint32
	Records []TxRecord
}

// Size returns the wire size of the response (6 + n*18).
func (r TransactionQueryResponse) Size() int {
	return 6 + len(r.Records)*TxQueryRecSize
}

// Put encodes r into dst, which must be at least r.Size() bytes.
func (r TransactionQueryResponse) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.Result)
	binary.LittleEndian.PutUint16(dst[4:6], uint16(len(r.Records)))
	off := 6
	for _, rec := range r.Records {
		rec.Put(dst[off : off+TxQueryRecSize])
		off += TxQueryRecSize
	}
}

// DecodeTransactionQueryResponse decodes a response payload whose length
// (the frame's data_len) must be exactly 6 + n*18 for the n it declares:
// a shorter payload is ErrTruncated, a longer one ErrBadDataLen.
func DecodeTransactionQueryResponse(src []byte) (TransactionQueryResponse, error) {
	if len(src) < 6 {
		return TransactionQueryResponse{}, ErrTruncated
	}
	result := binary.LittleEndian.Uint32(src[0:4])
	n := int(binary.LittleEndian.Uint16(src[4:6]))
	want := 6 + n*TxQueryRecSize
	if len(src) < want {
		return TransactionQueryResponse{}, ErrTruncated
	}
	if len(src) != want {
		return TransactionQueryResponse{}, ErrBadDataLen
	}
	recs := make([]TxRecord, n)
	off := 6
	for i := 0; i < n; i++ {
		recs[i] = decodeTxRecord(src[off : off+TxQueryRecSize])
		off += TxQueryRecSize
	}
	return TransactionQueryResponse{Result: result, Records: recs}, nil
}

// ValidateDataLen checks that dataLen, as declared in the frame header,
// matches the fixed payload size for a REQUEST of the given base message
// type. A mismatch is a decode error (spec §7): the dispatcher must drop
// the connection rather than respond.
func ValidateDataLen(base uint32, dataLen uint16) error {
	size, ok := RequestPayloadSize(base)
	if !ok {
		return ErrUnknownMsg
	}
	if int(dataLen) != size {
		return ErrBadDataLen
	}
	return nil
}

// RequestPayloadSize returns the fixed payload size (excluding header) for
// a REQUEST of the given base message type. The dispatcher sizes its
// payload read from this value rather than from the incoming data_len
// field; a frame whose data_len disagrees with it is rejected separately
// by ValidateDataLen.
func RequestPayloadSize(base uint32) (int, bool) {
	switch base {
	case MsgConnect:
		return ConnectRequestSize, true
	case MsgCreateAccount:
		return CreateAccountRequestSize, true
	case MsgLogon:
		return LogonRequestSize, true
	case MsgLogoff:
		return 0, true
	case MsgDeposit:
		return DepositRequestSize, true
	case MsgWithdrawal:
		return AmountRequestSize, true
	case MsgBalanceQuery:
		return 0, true
	case MsgTransactionQuery:
		return TransactionQueryRequestSize, true
	case MsgPurchaseStamps:
		return AmountRequestSize, true
	default:
		return 0, false
	}
}
