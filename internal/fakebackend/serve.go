package fakebackend

import (
	"errors"
	"net"
	"net/http"
	"time"
)

// Server is a Backend bound to a real listener.
type Server struct {
	URL string
	srv *http.Server
}

// Serve starts answering on addr ("127.0.0.1:0" picks a free port).
func (b *Backend) Serve(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		URL: "http://" + ln.Addr().String(),
		srv: &http.Server{
			Handler:           b.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = ln.Close()
		}
	}()
	return s, nil
}

// Close stops the listener and releases any hanging requests.
func (s *Server) Close() error {
	return s.srv.Close()
}
