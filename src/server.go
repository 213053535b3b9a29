package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	Provide rigctl service over TCP.
 *
 * Description:	Any number of clients may be attached at once, each in
 *		its own goroutine.  They all share one PTT controller.
 *
 *		A session ends when the client goes away or on any
 *		read/write error.  That only affects the one session;
 *		the listener carries on accepting.
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
)

// Longest request we will buffer while waiting for a newline.
const maxCommandLength = 4096

var errIncompleteCommand = errors.New("connection closed in the middle of a command")

type Server struct {
	cfg    RigctlConfig
	rig    *Rigctl
	logger *log.Logger

	mu       sync.Mutex
	listener net.Listener
	sessions map[*Session]struct{}
	wg       sync.WaitGroup
}

func NewServer(cfg RigctlConfig, ptt PTT, logger *log.Logger) (*Server, error) {
	var ack, err = ParseAckPolicy(cfg.Ack)
	if err != nil {
		return nil, err
	}

	return &Server{ //nolint:exhaustruct
		cfg:      cfg,
		rig:      NewRigctl(ptt, ack),
		logger:   componentLogger(logger, "rigctl"),
		sessions: make(map[*Session]struct{}),
	}, nil
}

// Listen binds the configured address.  Serve calls it if needed; call
// it first to learn the port before serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	var listener, err = net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}

	s.listener = listener

	return nil
}

// Addr is nil until Listen has succeeded.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// Serve accepts clients until ctx is done, then closes the listener and
// every open session and waits for them to finish.
func (s *Server) Serve(ctx context.Context) error {
	var err = s.Listen()
	if err != nil {
		return err
	}

	var listener = s.listener

	var stop = context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()

	s.logger.Info("Ready to accept rigctl clients", "addr", listener.Addr())

	for {
		var conn, acceptErr = listener.Accept()
		if acceptErr != nil {
			if ctx.Err() != nil || errors.Is(acceptErr, net.ErrClosed) {
				break
			}

			s.logger.Warn("Accept failed", "err", acceptErr)
			time.Sleep(100 * time.Millisecond)

			continue
		}

		s.startSession(conn)
	}

	s.closeSessions()
	s.wg.Wait()

	s.logger.Info("rigctl server stopped")

	return nil
}

func (s *Server) startSession(conn net.Conn) {
	var sess = &Session{
		id:     ulid.Make().String(),
		conn:   conn,
		rig:    s.rig,
		logger: nil,
	}
	sess.logger = s.logger.With("session", sess.id)

	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		sess.run()

		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
	}()
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sess := range s.sessions {
		sess.conn.Close()
	}
}

// Session is one attached client.  It holds nothing but the connection;
// every request goes back to the shared controller.
type Session struct {
	id     string
	conn   net.Conn
	rig    *Rigctl
	logger *log.Logger
}

func (sess *Session) run() {
	defer sess.conn.Close()

	sess.logger.Info("Connection from", "remote", sess.conn.RemoteAddr())

	var scanner = bufio.NewScanner(sess.conn)
	scanner.Buffer(make([]byte, 0, 1024), maxCommandLength)
	scanner.Split(splitCommands)

	for scanner.Scan() {
		var cmd = scanner.Text()

		var reply, err = sess.rig.Execute(cmd)
		if err != nil {
			sess.logger.Warn("Request failed", "cmd", cmd, "err", err)
		}

		var _, writeErr = sess.conn.Write([]byte(reply))
		if writeErr != nil {
			sess.logger.Warn("Error sending reply, closing connection", "err", writeErr)
			return
		}
	}

	var err = scanner.Err()

	switch {
	case err == nil, errors.Is(err, net.ErrClosed):
		sess.logger.Info("Client disconnected")
	case errors.Is(err, errIncompleteCommand):
		sess.logger.Debug("Client disconnected", "err", err)
	default:
		sess.logger.Warn("Error reading from client, closing connection", "err", err)
	}
}

// splitCommands is a bufio.SplitFunc yielding newline-terminated
// requests without the newline.  Unlike bufio.ScanLines it leaves a
// carriage return alone, since matching is exact.  A partial request at
// EOF is never executed.
func splitCommands(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF && len(data) > 0 {
		return len(data), nil, errIncompleteCommand
	}

	return 0, nil, nil
}
