package server

import (
	"net"
	"sync"

	"pmatch/internal/metrics"
	"pmatch/pkg/errors"
	"pmatch/pkg/matcher"
)

// maxLine bounds one request line.
const maxLine = 1 << 20

type TCPServer struct {
	ListenAddr string
	Dispatcher *matcher.AtomicDispatcher
	Metrics    *metrics.Metrics

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

type errorReply struct {
	Code  errors.ErrorCode `json:"code"`
	Error string           `json:"error"`
}
