package devrelay

import (
	"crypto/tls"
	"errors"
	"net"
	"time"

	gosmtp "github.com/emersion/go-smtp"
)

// ServerOptions configures the listening side of the relay.
type ServerOptions struct {
	Addr            string
	Domain          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	// TLSConfig enables STARTTLS, and implicit TLS on listeners wrapped by
	// Listen.
	TLSConfig *tls.Config
	// ImplicitTLS makes Listen hand out TLS connections from the start.
	ImplicitTLS bool
}

// NewServer wraps b in a go-smtp server. Plain-text AUTH is allowed since
// the relay only listens on development machines.
func NewServer(b *Backend, opts ServerOptions) *gosmtp.Server {
	s := gosmtp.NewServer(b)
	s.Addr = opts.Addr
	s.Domain = opts.Domain
	s.ReadTimeout = opts.ReadTimeout
	s.WriteTimeout = opts.WriteTimeout
	s.MaxMessageBytes = opts.MaxMessageBytes
	s.AllowInsecureAuth = true
	s.TLSConfig = opts.TLSConfig
	return s
}

// Listen opens the TCP listener for opts.Addr, wrapped in TLS when
// opts.ImplicitTLS is set.
func Listen(opts ServerOptions) (net.Listener, error) {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, err
	}
	if opts.ImplicitTLS {
		if opts.TLSConfig == nil {
			ln.Close()
			return nil, errors.New("implicit tls requires a tls config")
		}
		return tls.NewListener(ln, opts.TLSConfig), nil
	}
	return ln, nil
}
