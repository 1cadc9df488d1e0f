// Package monitor is the optional read-only HTTP/1.0 status surface, adapted
// from the teacher repository's internal/router and internal/server: the
// same wire parser/writer (internal/http10) and the same switch-on-path
// dispatch shape, but every route now reads a shellctx.Context snapshot
// through internal/submitter instead of dispatching into a worker pool.
// Enabled only when config.Config.MonitorAddr is non-empty; it never mutates
// scheduler state.
package monitor

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"batchshell/internal/http10"
	"batchshell/internal/resp"
	"batchshell/internal/shellctx"
	"batchshell/internal/submitter"
	"batchshell/internal/util"
)

// Server serves /status and /jobs over HTTP/1.0, each accepted connection
// handled by its own goroutine, exactly the teacher's accept loop shape.
type Server struct {
	ctx       *shellctx.Context
	sub       *submitter.Submitter
	log       *zap.Logger
	startedAt time.Time
	connCount uint64
}

// New builds a Server over ctx, reporting through sub.
func New(ctx *shellctx.Context, sub *submitter.Submitter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{ctx: ctx, sub: sub, log: log, startedAt: time.Now()}
}

// ListenAndServe accepts connections on addr until Accept returns an error,
// mirroring the teacher's blocking Accept loop. The listener is created and
// closed here and is not exposed to the caller, so there is no way to stop
// the loop from outside.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		atomic.AddUint64(&s.connCount, 1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(c net.Conn) {
	defer c.Close()

	trace := map[string]string{
		"X-Request-Id": util.NewReqID(),
		"X-Worker-Pid": strconv.Itoa(os.Getpid()),
		"Connection":   "close",
	}

	r := bufio.NewReader(c)
	req, err := http10.ParseRequest(r)
	if err != nil {
		http10.WriteErrorJSON(c, 400, "bad_request", err.Error(), trace)
		return
	}

	if req.Method != "GET" {
		http10.WriteErrorJSON(c, 400, "method", "only GET", trace)
		return
	}

	path, _ := http10.SplitTarget(req.Target)
	result := s.dispatch(path)
	if result.JSON {
		if result.Err != nil {
			http10.WriteErrorJSON(c, result.Status, result.Err.Code, result.Err.Detail, trace)
		} else {
			http10.WriteJSONH(c, result.Status, result.Body, trace)
		}
	} else {
		http10.WritePlainH(c, result.Status, result.Body, trace)
	}
}

func (s *Server) dispatch(path string) resp.Result {
	switch path {
	case "/status":
		return s.statusResult()
	case "/jobs":
		return s.jobsResult()
	default:
		return resp.NotFound("not_found", "route")
	}
}

func (s *Server) statusResult() resp.Result {
	s.ctx.Lock()
	ncpu := s.ctx.NCPU
	tslice := s.ctx.TSlice
	tick := s.ctx.GlobalTick
	occupied := s.ctx.CPUs.Occupied()
	ready := s.ctx.Ready.Size()
	s.ctx.Unlock()

	out := map[string]any{
		"pid":         os.Getpid(),
		"uptime_ms":   time.Since(s.startedAt).Milliseconds(),
		"started_at":  s.startedAt.UTC().Format(time.RFC3339Nano),
		"connections": atomic.LoadUint64(&s.connCount),
		"ncpu":        ncpu,
		"tslice_ms":   tslice,
		"global_tick": tick,
		"occupied":    occupied,
		"ready_len":   ready,
	}
	b, err := json.Marshal(out)
	if err != nil {
		return resp.IntErr("marshal", err.Error())
	}
	return resp.JSONOK(string(b))
}

func (s *Server) jobsResult() resp.Result {
	lines := s.sub.Report()
	b, err := json.Marshal(lines)
	if err != nil {
		return resp.IntErr("marshal", err.Error())
	}
	return resp.JSONOK(string(b))
}
