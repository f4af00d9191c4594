package imap

import (
	"net"
	"time"
)

// netDialer satisfies client.Dialer with a connect timeout.
type netDialer struct {
	timeout time.Duration
}

func (d *netDialer) Dial(network, address string) (net.Conn, error) {
	return net.DialTimeout(network, address, d.timeout)
}
