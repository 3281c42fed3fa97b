package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"os"
)

// Flat, fixed-size binary record layouts, little-endian, no struct
// padding — a straight sum of each record's declared fields.
const (
	accountRecordSize     = 32 + 32 + 32 + 2 + 4 + 4 + 8 + 4 // 118
	transactionRecordSize = 4 + 8 + 4 + 2 + 8                // 26
)

var errShortRecord = errors.New("store: truncated record at end of file")

func putFixedString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}

func getFixedString(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}

func putAccount(dst []byte, a Account) {
	putFixedString(dst[0:32], a.First)
	putFixedString(dst[32:64], a.Last)
	putFixedString(dst[64:96], a.Email)
	binary.LittleEndian.PutUint16(dst[96:98], a.Pin)
	binary.LittleEndian.PutUint32(dst[98:102], a.SSN)
	binary.LittleEndian.PutUint32(dst[102:106], a.DLN)
	binary.LittleEndian.PutUint64(dst[106:114], a.CustomerID)
	binary.LittleEndian.PutUint32(dst[114:118], a.Balance)
}

func getAccount(src []byte) Account {
	return Account{
		First:      getFixedString(src[0:32]),
		Last:       getFixedString(src[32:64]),
		Email:      getFixedString(src[64:96]),
		Pin:        binary.LittleEndian.Uint16(src[96:98]),
		SSN:        binary.LittleEndian.Uint32(src[98:102]),
		DLN:        binary.LittleEndian.Uint32(src[102:106]),
		CustomerID: binary.LittleEndian.Uint64(src[106:114]),
		Balance:    binary.LittleEndian.Uint32(src[114:118]),
	}
}

func putTransaction(dst []byte, t Transaction) {
	binary.LittleEndian.PutUint32(dst[0:4], t.ID)
	binary.LittleEndian.PutUint64(dst[4:12], t.DateTime)
	binary.LittleEndian.PutUint32(dst[12:16], t.Amount)
	binary.LittleEndian.PutUint16(dst[16:18], t.Type)
	binary.LittleEndian.PutUint64(dst[18:26], t.CustomerID)
}

func getTransaction(src []byte) Transaction {
	return Transaction{
		ID:         binary.LittleEndian.Uint32(src[0:4]),
		DateTime:   binary.LittleEndian.Uint64(src[4:12]),
		Amount:     binary.LittleEndian.Uint32(src[12:16]),
		Type:       binary.LittleEndian.Uint16(src[16:18]),
		CustomerID: binary.LittleEndian.Uint64(src[18:26]),
	}
}

// SaveAccounts writes accts to path as a flat concatenation of fixed-size
// records, overwriting any existing file.
func SaveAccounts(path string, accts []Account) error {
	f, err := os.Create(path)
	if err != nil {
		log.Printf("failed to create %s: %v", path, err)
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	buf := make([]byte, accountRecordSize)
	for _, a := range accts {
		putAccount(buf, a)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

// LoadAccounts reads accts from path. A missing file is not an error: it
// is treated as an empty store.
func LoadAccounts(path string) ([]Account, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		log.Printf("failed to open %s: %v", path, err)
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	buf := make([]byte, accountRecordSize)
	var accts []Account
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			log.Printf("%s: %v, ignoring truncated tail record", path, errShortRecord)
			break
		}
		if err != nil {
			return nil, err
		}
		accts = append(accts, getAccount(buf))
	}
	return accts, nil
}

// SaveTransactions writes recs to path as a flat concatenation of
// fixed-size records, overwriting any existing file.
func SaveTransactions(path string, recs []Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		log.Printf("failed to create %s: %v", path, err)
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	buf := make([]byte, transactionRecordSize)
	for _, t := range recs {
		putTransaction(buf, t)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

// LoadTransactions reads recs from path. A missing file is not an error:
// it is treated as an empty log. A truncated final record is dropped
// rather than treated as corruption, so a crash mid-append only costs an
// id gap.
func LoadTransactions(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		log.Printf("failed to open %s: %v", path, err)
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	buf := make([]byte, transactionRecordSize)
	var recs []Transaction
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			log.Printf("%s: %v, ignoring truncated tail record", path, errShortRecord)
			break
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, getTransaction(buf))
	}
	return recs, nil
}
