package control

import "github.com/rs/zerolog"

// ServerBuilderOption is a functional option used to configure a Server during construction.
type ServerBuilderOption func(*server)

// WithAddr sets the listen address.
//
// Parameters:
//   - addr: host:port
//
// Returns:
//   - ServerBuilderOption: a function that sets the address
func WithAddr(addr string) ServerBuilderOption {
	return func(s *server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithPoster routes parameter changes through the frame loop's mailbox. Without a poster
// changes apply on the connection goroutine.
//
// Parameters:
//   - p: the mailbox, usually the scheduler
//
// Returns:
//   - ServerBuilderOption: a function that sets the poster
func WithPoster(p Poster) ServerBuilderOption {
	return func(s *server) {
		s.poster = p
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) ServerBuilderOption {
	return func(s *server) {
		s.logger = l
	}
}
