package network

import (
	"fmt"
	"log"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// acceptBacklog is the server's listen backlog. net.Listen does not expose
// this knob, so the listener is built directly from the socket/bind/listen
// syscalls and handed to net.FileListener.
const acceptBacklog = 10

// Listen opens a TCP listener on port with the fixed accept backlog. If
// the raw syscall path fails — anything other than a clean Linux socket
// stack, most commonly — it falls back to net.Listen with a logged notice.
func Listen(port int) (net.Listener, error) {
	l, err := listenRaw(port)
	if err == nil {
		return l, nil
	}
	log.Printf("raw socket listen failed (%v), falling back to net.Listen with the platform default backlog", err)
	return net.Listen("tcp", fmt.Sprintf(":%d", port))
}

func listenRaw(port int) (net.Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, err
	}

	addr := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Listen(fd, acceptBacklog); err != nil {
		unix.Close(fd)
		return nil, err
	}

	file := os.NewFile(uintptr(fd), fmt.Sprintf("tcp-listener-%d", port))
	defer file.Close()
	return net.FileListener(file)
}
