// Package network implements the bank's TCP listener, per-connection
// dispatch loop, and request handlers over the wire protocol defined in
// core.
package network

import (
	"log"
	"net"
	"sync"

	"github.com/cnpbank/cnp/store"
)

// Server owns the listening socket and the three shared tables every
// connection's handlers operate on.
type Server struct {
	port     int
	accounts *store.AccountStore
	txlog    *store.TransactionLog
	sessions *store.SessionTable

	listener net.Listener
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// New builds a Server bound to the given tables. It does not start
// listening until Start is called.
func New(port int, accounts *store.AccountStore, txlog *store.TransactionLog, sessions *store.SessionTable) *Server {
	return &Server{
		port:     port,
		accounts: accounts,
		txlog:    txlog,
		sessions: sessions,
		shutdown: make(chan struct{}),
	}
}

// Start opens the listener and begins accepting connections in the
// background. It returns once the listener is up.
func (s *Server) Start() error {
	l, err := Listen(s.port)
	if err != nil {
		log.Printf("failed to start bank server: %v", err)
		return err
	}
	s.listener = l

	log.Printf("bank server listening on port %d", s.port)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the listener's bound address. Valid only after Start.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Stop signals every connection's dispatch loop to exit, closes the
// listener, and waits for all goroutines to return.
func (s *Server) Stop() {
	close(s.shutdown)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
			}
			log.Printf("accept error: %v", err)
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}
