// Package transport exposes the sam engine as a tiny 9P file server:
// writing a command line to "ctl" executes it against a window, and
// reading "text" returns that window's current contents. It is a
// drastically narrowed stand-in for acme's own /mnt/acme tree, grounded
// directly on edwood's fsys.go dispatch (switch on an Fcall's Type,
// build a reply Fcall, plan9.WriteFcall it back), but synchronous and
// single-file rather than the windowed, async xfid pipeline acme uses —
// layout/multi-window presentation is a Non-goal here.
package transport

import (
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"9fans.net/go/plan9"

	"github.com/rjkroege/samengine/sam"
)

const (
	qidRoot = iota
	qidCtl
	qidText
)

// Server answers 9P connections against a single window.
type Server struct {
	e   *sam.Engine
	win sam.Window

	ln net.Listener
}

// New returns a Server driving win through e. It does not start
// listening until Serve is called.
func New(e *sam.Engine, win sam.Window) *Server {
	return &Server{e: e, win: win}
}

// ListenAndServe listens on network/address (e.g. "unix", "/tmp/sam.9p")
// and serves connections until the listener is closed.
func (s *Server) ListenAndServe(network, address string) error {
	ln, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	s.ln = ln
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.serveConn(conn)
	}
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

type conn struct {
	rwc  io.ReadWriteCloser
	mu   sync.Mutex
	fids map[uint32]uint64 // fid -> qid path
}

func (s *Server) serveConn(rwc io.ReadWriteCloser) {
	defer rwc.Close()
	c := &conn{rwc: rwc, fids: make(map[uint32]uint64)}
	for {
		fc, err := plan9.ReadFcall(rwc)
		if err != nil {
			return
		}
		reply := s.handle(c, fc)
		if err := plan9.WriteFcall(rwc, reply); err != nil {
			log.Printf("transport: write reply: %v", err)
			return
		}
	}
}

func (s *Server) handle(c *conn, fc *plan9.Fcall) *plan9.Fcall {
	switch fc.Type {
	case plan9.Tversion:
		return &plan9.Fcall{Type: plan9.Rversion, Tag: fc.Tag, Msize: fc.Msize, Version: "9P2000"}
	case plan9.Tauth:
		return errorReply(fc, fmt.Errorf("authentication not required"))
	case plan9.Tattach:
		c.fids[fc.Fid] = qidRoot
		return &plan9.Fcall{Type: plan9.Rattach, Tag: fc.Tag, Qid: s.qid(qidRoot)}
	case plan9.Twalk:
		return s.walk(c, fc)
	case plan9.Topen:
		path, ok := c.fids[fc.Fid]
		if !ok {
			return errorReply(fc, fmt.Errorf("unknown fid"))
		}
		return &plan9.Fcall{Type: plan9.Ropen, Tag: fc.Tag, Qid: s.qid(path), Iounit: 8192}
	case plan9.Tread:
		return s.read(c, fc)
	case plan9.Twrite:
		return s.write(c, fc)
	case plan9.Tclunk:
		delete(c.fids, fc.Fid)
		return &plan9.Fcall{Type: plan9.Rclunk, Tag: fc.Tag}
	case plan9.Tflush:
		return &plan9.Fcall{Type: plan9.Rflush, Tag: fc.Tag}
	default:
		return errorReply(fc, fmt.Errorf("unsupported fcall type %d", fc.Type))
	}
}

func (s *Server) qid(path uint64) plan9.Qid {
	t := uint8(plan9.QTFILE)
	if path == qidRoot {
		t = plan9.QTDIR
	}
	return plan9.Qid{Path: path, Type: t}
}

func (s *Server) walk(c *conn, fc *plan9.Fcall) *plan9.Fcall {
	path, ok := c.fids[fc.Fid]
	if !ok {
		return errorReply(fc, fmt.Errorf("unknown fid"))
	}
	wqid := make([]plan9.Qid, 0, len(fc.Wname))
	for _, name := range fc.Wname {
		switch {
		case path == qidRoot && name == "ctl":
			path = qidCtl
		case path == qidRoot && name == "text":
			path = qidText
		default:
			if len(wqid) < len(fc.Wname) {
				return &plan9.Fcall{Type: plan9.Rwalk, Tag: fc.Tag, Wqid: wqid}
			}
		}
		wqid = append(wqid, s.qid(path))
	}
	if len(fc.Wname) == 0 || len(wqid) == len(fc.Wname) {
		c.fids[fc.Newfid] = path
	}
	return &plan9.Fcall{Type: plan9.Rwalk, Tag: fc.Tag, Wqid: wqid}
}

func (s *Server) read(c *conn, fc *plan9.Fcall) *plan9.Fcall {
	path, ok := c.fids[fc.Fid]
	if !ok {
		return errorReply(fc, fmt.Errorf("unknown fid"))
	}
	if path != qidText {
		return &plan9.Fcall{Type: plan9.Rread, Tag: fc.Tag, Data: nil}
	}
	data := s.win.Text().Snapshot()
	off := fc.Offset
	if off > uint64(len(data)) {
		off = uint64(len(data))
	}
	end := off + uint64(fc.Count)
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	return &plan9.Fcall{Type: plan9.Rread, Tag: fc.Tag, Data: data[off:end]}
}

func (s *Server) write(c *conn, fc *plan9.Fcall) *plan9.Fcall {
	path, ok := c.fids[fc.Fid]
	if !ok {
		return errorReply(fc, fmt.Errorf("unknown fid"))
	}
	if path != qidCtl {
		return errorReply(fc, fmt.Errorf("permission denied"))
	}
	if err := s.e.Exec(fc.Data, s.win); err != nil {
		return errorReply(fc, err)
	}
	return &plan9.Fcall{Type: plan9.Rwrite, Tag: fc.Tag, Count: uint32(len(fc.Data))}
}

func errorReply(fc *plan9.Fcall, err error) *plan9.Fcall {
	return &plan9.Fcall{Type: plan9.Rerror, Tag: fc.Tag, Ename: err.Error()}
}
