package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/someoneigna/gitkit"
	"github.com/someoneigna/gitkit/engine"
	"github.com/someoneigna/gitkit/merge"
	"github.com/someoneigna/gitkit/remotes"
)

// Server is a TCP administration server over one repository. Requests are
// newline-delimited JSON; repository access is serialized through a single
// lock because the underlying configuration is one shared file.
type Server struct {
	listener   net.Listener
	repo       *gitkit.Repository
	identity   engine.Identity
	authConfig *AuthConfig
	logger     *zap.Logger
	mu         sync.Mutex
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewServer creates an administration server over the given repository.
func NewServer(repo *gitkit.Repository, identity engine.Identity, authConfig *AuthConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		repo:       repo,
		identity:   identity,
		authConfig: authConfig,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	s.logger.Info("listening", zap.String("addr", listener.Addr().String()))

	go s.acceptLoop()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.logger.Warn("accept error", zap.Error(err))
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	s.logger.Info("client connected", zap.String("remote", conn.RemoteAddr().String()))

	state := &ConnectionState{}
	reader := bufio.NewReader(conn)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				s.logger.Warn("read error", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			s.logger.Info("client disconnected", zap.String("remote", conn.RemoteAddr().String()))
			return
		}

		var response Response
		req, err := DecodeRequest([]byte(line))
		if err != nil {
			response = errorResponse("", fmt.Errorf("malformed request: %w", err))
		} else {
			response = s.dispatch(req, state)
		}

		data, err := EncodeResponse(response)
		if err != nil {
			s.logger.Error("failed to encode response", zap.Error(err))
			continue
		}
		if _, err := conn.Write(data); err != nil {
			s.logger.Warn("write error", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			return
		}
	}
}

func (s *Server) dispatch(req Request, state *ConnectionState) Response {
	op := strings.ToUpper(strings.TrimSpace(req.Op))

	switch op {
	case "AUTH":
		return s.handleAuth(req, state)
	case "CHECK-NAME":
		return s.handleCheckName(req)
	case "ADD", "UPDATE", "REMOVE", "MERGE":
		if err := s.requireAuth(state); err != nil {
			return errorResponse(strings.ToLower(op), err)
		}
	case "LIST", "GET":
		// Reads are open; still serialized below, the repository is one
		// shared resource.
	default:
		return errorResponse("", fmt.Errorf("unknown op: %s", req.Op))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch op {
	case "LIST":
		return s.handleList()
	case "GET":
		return s.handleGet(req)
	case "ADD":
		return s.handleAdd(req)
	case "UPDATE":
		return s.handleUpdate(req)
	case "REMOVE":
		return s.handleRemove(req)
	case "MERGE":
		return s.handleMerge(req, state)
	}
	return errorResponse("", fmt.Errorf("unknown op: %s", req.Op))
}

func (s *Server) handleList() Response {
	resp := ListResponse{Remotes: []RemoteResponse{}}
	for rem, err := range s.repo.Remotes().All() {
		if err != nil {
			return errorResponse("list", err)
		}
		resp.Remotes = append(resp.Remotes, remoteResponse(&rem))
	}
	return resultResponse("list", resp)
}

func (s *Server) handleGet(req Request) Response {
	rem, err := s.repo.Remotes().Get(req.Name)
	if err != nil {
		return errorResponse("get", err)
	}
	return resultResponse("get", remoteResponse(rem))
}

func (s *Server) handleCheckName(req Request) Response {
	type checkResponse struct {
		Name  string `json:"name"`
		Valid bool   `json:"valid"`
	}
	return resultResponse("check-name", checkResponse{
		Name:  req.Name,
		Valid: remotes.IsValidName(req.Name),
	})
}

func (s *Server) handleAdd(req Request) Response {
	rem, err := s.repo.Remotes().Create(req.Name, req.URL, req.FetchRefSpecs...)
	if err != nil {
		return errorResponse("add", err)
	}
	s.logger.Info("remote added", zap.String("name", rem.Name), zap.String("url", rem.URL))
	return resultResponse("add", remoteResponse(rem))
}

func (s *Server) handleUpdate(req Request) Response {
	reg := s.repo.Remotes()
	rem, err := reg.Get(req.Name)
	if err != nil {
		return errorResponse("update", err)
	}

	var actions []remotes.UpdateAction
	if req.URL != "" {
		actions = append(actions, remotes.SetURL(req.URL))
	}
	if len(req.FetchRefSpecs) > 0 {
		actions = append(actions, remotes.SetFetchRefSpecs(req.FetchRefSpecs...))
	}
	if len(actions) == 0 {
		return errorResponse("update", errors.New("nothing to update"))
	}

	updated, err := reg.Update(*rem, actions...)
	if err != nil {
		return errorResponse("update", err)
	}
	s.logger.Info("remote updated", zap.String("name", updated.Name))
	return resultResponse("update", remoteResponse(updated))
}

func (s *Server) handleRemove(req Request) Response {
	if err := s.repo.Remotes().Remove(req.Name); err != nil {
		return errorResponse("remove", err)
	}
	s.logger.Info("remote removed", zap.String("name", req.Name))
	return Response{Success: true, Type: "remove"}
}

func (s *Server) handleMerge(req Request, state *ConnectionState) Response {
	opts := merge.NewOptions()
	opts.CommitOnSuccess = !req.NoCommit

	switch strings.ToLower(req.FF) {
	case "", "auto":
		opts.FastForward = merge.FastForwardDefault
	case "only":
		opts.FastForward = merge.FastForwardOnly
	case "never":
		opts.FastForward = merge.NoFastForward
	default:
		return errorResponse("merge", fmt.Errorf("unknown ff mode: %s", req.FF))
	}

	switch strings.ToLower(req.Favor) {
	case "", "normal":
		opts.FileFavor = merge.FavorNormal
	case "ours":
		opts.FileFavor = merge.FavorOurs
	case "theirs":
		opts.FileFavor = merge.FavorTheirs
	case "union":
		opts.FileFavor = merge.FavorUnion
	default:
		return errorResponse("merge", fmt.Errorf("unknown favor: %s", req.Favor))
	}

	result, err := s.repo.Merge(req.Source, s.connectionIdentity(state), opts)
	if err != nil {
		return errorResponse("merge", err)
	}

	s.logger.Info("merge finished",
		zap.String("source", req.Source),
		zap.Bool("fast_forward", result.FastForward),
		zap.Int("conflicts", len(result.Conflicts)))

	return resultResponse("merge", MergeResponse{
		CommitID:        result.CommitID,
		FastForward:     result.FastForward,
		AlreadyUpToDate: result.AlreadyUpToDate,
		MergedFiles:     result.MergedFiles,
		Conflicts:       len(result.Conflicts),
	})
}

func remoteResponse(rem *remotes.Remote) RemoteResponse {
	return RemoteResponse{
		Name:          rem.Name,
		URL:           rem.URL,
		URLs:          rem.URLs,
		FetchRefSpecs: rem.FetchRefSpecs,
	}
}
