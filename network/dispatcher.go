package network

import (
	"errors"
	"io"
	"log"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/cnpbank/cnp/core"
	"github.com/cnpbank/cnp/store"
)

// receiveTimeout is how long a single read waits before the dispatch loop
// re-checks the server's shutdown flag. It bounds how long Stop() can take
// to drain an idle connection.
const receiveTimeout = 500 * time.Millisecond

// handleConn runs one connection's request/response loop until the client
// disconnects, a decode error occurs, or the server shuts down. No session
// exists for the connection until a successful CONNECT request creates
// one.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	workerID := uuid.New()
	log.Printf("worker %s: accepted connection %s", workerID, conn.RemoteAddr())

	var sess *store.Session
	defer func() {
		if sess != nil {
			s.sessions.Remove(sess.ClientID)
		}
		conn.Close()
		log.Printf("worker %s: connection closed", workerID)
	}()

	header := make([]byte, core.HeaderSize)

	for {
		select {
		case <-s.shutdown:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(receiveTimeout))

		if _, err := io.ReadFull(conn, header); err != nil {
			if isTimeout(err) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				log.Printf("worker %s: read header: %v", workerID, err)
			}
			return
		}

		req, err := core.ParseHeader(header)
		if err != nil {
			log.Printf("worker %s: malformed header, dropping connection", workerID)
			return
		}

		base := core.MsgBase(req.MsgType)
		if core.MsgSub(req.MsgType) != core.SubRequest {
			log.Printf("worker %s: non-request msg_type %#x, dropping connection", workerID, req.MsgType)
			return
		}

		size, ok := core.RequestPayloadSize(base)
		if !ok {
			log.Printf("worker %s: unknown message base %#x, dropping connection", workerID, base)
			return
		}

		log.Printf("worker %s: dispatching %s", workerID, req)

		if err := core.ValidateDataLen(base, req.DataLen); err != nil {
			log.Printf("worker %s: %v (base %#x, data_len %d), dropping connection", workerID, err, base, req.DataLen)
			return
		}

		var payload []byte
		if size > 0 {
			payload = make([]byte, size)
			conn.SetReadDeadline(time.Now().Add(receiveTimeout))
			if _, err := io.ReadFull(conn, payload); err != nil {
				log.Printf("worker %s: read payload for base %#x: %v", workerID, base, err)
				return
			}
		}

		result := s.dispatch(workerID, base, req, payload, conn, &sess)

		respHeader := req.Reply(core.MsgBase(result.respBase), clientIDOf(sess))
		out := make([]byte, core.HeaderSize+len(result.payload))
		respHeader.DataLen = uint16(len(result.payload))
		respHeader.Put(out[:core.HeaderSize])
		copy(out[core.HeaderSize:], result.payload)

		if _, err := conn.Write(out); err != nil {
			log.Printf("worker %s: write response for base %#x: %v", workerID, base, err)
			return
		}
	}
}

func clientIDOf(sess *store.Session) uint16 {
	if sess == nil {
		return core.InvalidClientIDValue
	}
	return sess.ClientID
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
