// Package core defines the CNP wire protocol: the fixed-layout message
// header and payloads, the result-code taxonomy, and the customer-id hash
// that the account store uses as its primary key.
package core

// Message type bases (low 16 bits of MsgType).
const (
	MsgInvalid           uint32 = 0x00
	MsgConnect           uint32 = 0x50
	MsgCreateAccount     uint32 = 0x51
	MsgLogon             uint32 = 0x52
	MsgLogoff            uint32 = 0x53
	MsgDeposit           uint32 = 0x54
	MsgWithdrawal        uint32 = 0x55
	MsgBalanceQuery      uint32 = 0x56
	MsgTransactionQuery  uint32 = 0x57
	MsgPurchaseStamps    uint32 = 0x58
)

// Sub-type, packed into the high 16 bits of MsgType.
const (
	SubRequest  uint32 = 0x01
	SubResponse uint32 = 0x02
)

// MsgTypeOf packs a (sub, base) pair into the wire's single 32-bit msg_type field.
func MsgTypeOf(sub, base uint32) uint32 {
	return (sub << 16) | base
}

// MsgBase returns the low-16-bit base type of a packed msg_type.
func MsgBase(msgType uint32) uint32 {
	return msgType & 0xFFFF
}

// MsgSub returns the high-16-bit sub type of a packed msg_type.
func MsgSub(msgType uint32) uint32 {
	return (msgType >> 16) & 0xFFFF
}

// Result codes (CER_*). High 16 bits are a coarse facility, low 16 bits a
// sub-code; values are taken verbatim from the protocol's numeric table.
const (
	Success                   uint32 = 0x00000000
	AuthenticationFailed      uint32 = 0x00010001
	UnsupportedProtocol       uint32 = 0x00010002
	InvalidClientID           uint32 = 0x00020001
	InvalidNamePin            uint32 = 0x00020002
	InvalidArguments          uint32 = 0x00030001
	ClientNotLoggedOn         uint32 = 0x00030002
	DrawerBlocked             uint32 = 0x00030003
	InsufficientFunds         uint32 = 0x00040001
	AccountNotFound           uint32 = 0x00040002
	AccountExists             uint32 = 0x00040003
	ErrorResult               uint32 = 0xFFFFFFFF
)

// Deposit kind codes carried on DEPOSIT_REQUEST.
const (
	DepositCash  uint16 = 1
	DepositCheck uint16 = 2
)

// Transaction type codes, both on the wire and on disk.
const (
	TTDeposit        uint16 = 1
	TTWithdrawal     uint16 = 2
	TTStampPurchase  uint16 = 3
)

// Protocol version and validation constants.
const (
	ServerMajor    uint16 = 1
	ServerMinor    uint16 = 1
	ValidationKey  uint32 = 0x00DEAD01
)

// Reserved sentinel values (spec §3 invariants).
const (
	InvalidClientIDValue uint16 = 0xFFFF
	InvalidPin           uint16 = 0
	InvalidCustomerID    uint64 = 0
)

// NameFieldSize is the width of every fixed string field on the wire and on
// disk; all strings are NUL-padded and NUL-terminated within the field.
// HeaderSize is the frame header's size and TxQueryRecSize the size of one
// TRANSACTION_QUERY_RESPONSE record.
const (
	NameFieldSize  = 32
	HeaderSize     = 16
	TxQueryRecSize = 18 // id:D + datetime:Q + amount:D + type:W
)

// ResultName renders a CER_* code for logs; unknown codes print as hex.
func ResultName(code uint32) string {
	switch code {
	case Success:
		return "SUCCESS"
	case AuthenticationFailed:
		return "AUTHENTICATION_FAILED"
	case UnsupportedProtocol:
		return "UNSUPPORTED_PROTOCOL"
	case InvalidClientID:
		return "INVALID_CLIENT_ID"
	case InvalidNamePin:
		return "INVALID_NAME_PIN"
	case InvalidArguments:
		return "INVALID_ARGUMENTS"
	case ClientNotLoggedOn:
		return "CLIENT_NOT_LOGGEDON"
	case DrawerBlocked:
		return "DRAWER_BLOCKED"
	case InsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case AccountNotFound:
		return "ACCOUNT_NOT_FOUND"
	case AccountExists:
		return "ACCOUNT_EXISTS"
	case ErrorResult:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
