package server

import (
	"bufio"
	stderrors "errors"
	"net"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"pmatch/internal/metrics"
	"pmatch/pkg/errors"
	"pmatch/pkg/matcher"
)

func NewTCPServer(listenAddr string, d *matcher.AtomicDispatcher, m *metrics.Metrics) *TCPServer {
	return &TCPServer{
		ListenAddr: listenAddr,
		Dispatcher: d,
		Metrics:    m,
	}
}

func (s *TCPServer) Start() error {
	listener, err := net.Listen("tcp", s.ListenAddr)
	if err != nil {
		log.Err(err).Msgf("failed to listen on TCP %s", s.ListenAddr)
		return err
	}
	log.Info().Msgf("line server listening on TCP %s", listener.Addr())
	return s.Serve(listener)
}

// Serve accepts connections on listener until it is closed.
func (s *TCPServer) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return listener.Close()
	}
	s.listener = listener
	s.mu.Unlock()
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Err(err).Msg("Error accepting TCP connection:")
			continue
		}

		go s.HandleConn(conn)
	}
}

func (s *TCPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// HandleConn reads one JSON argument array per line and writes one JSON
// reply per line: a matcher.Result, or {code, error}.
func (s *TCPServer) HandleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		status, reply := s.dispatch(line)
		s.Metrics.RequestsTotal.WithLabelValues("tcp", status).Inc()
		if err := enc.Encode(reply); err != nil {
			s.Metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeClientWrite, "tcp").Inc()
			log.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("failed to write reply")
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("connection read failed")
	}
}

func (s *TCPServer) dispatch(line []byte) (string, any) {
	var args []any
	if err := json.Unmarshal(line, &args); err != nil {
		s.Metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeDecode, "tcp").Inc()
		return "bad_request", failure(errors.Wrap(err, errors.ErrInvalidInput, "expected a JSON array of arguments"))
	}

	d := s.Dispatcher.Load()
	if d == nil {
		return "unavailable", failure(errors.New(errors.ErrNotFound, "no case set loaded"))
	}

	res, err := d.Match(args...)
	switch {
	case err == nil:
		return "ok", res
	case errors.IsErrorCode(err, errors.ErrPatternsExhausted):
		return "exhausted", failure(err)
	default:
		s.Metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeDispatch, "tcp").Inc()
		return "error", failure(err)
	}
}

func failure(err error) errorReply {
	return errorReply{Code: errors.GetErrorCode(err), Error: err.Error()}
}
