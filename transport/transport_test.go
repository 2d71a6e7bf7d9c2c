package transport

import (
	"testing"

	"9fans.net/go/plan9"

	"github.com/rjkroege/samengine/runtime"
	"github.com/rjkroege/samengine/sam"
)

func newTestServer(content string) *Server {
	e := sam.NewEngine()
	win := runtime.NewWindow("scratch", []byte(content))
	return New(e, win)
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer("")
	reply := s.handle(&conn{fids: make(map[uint32]uint64)}, &plan9.Fcall{
		Type: plan9.Tversion, Tag: 1, Msize: 8192, Version: "9P2000",
	})
	if reply.Type != plan9.Rversion || reply.Version != "9P2000" {
		t.Fatalf("got %+v", reply)
	}
}

func TestHandleAuthIsUnsupported(t *testing.T) {
	s := newTestServer("")
	reply := s.handle(&conn{fids: make(map[uint32]uint64)}, &plan9.Fcall{Type: plan9.Tauth, Tag: 1})
	if reply.Type != plan9.Rerror {
		t.Fatalf("got %+v, want Rerror", reply)
	}
}

func TestHandleAttachWalkOpenReadText(t *testing.T) {
	s := newTestServer("hello world")
	c := &conn{fids: make(map[uint32]uint64)}

	if r := s.handle(c, &plan9.Fcall{Type: plan9.Tattach, Tag: 1, Fid: 0}); r.Type != plan9.Rattach {
		t.Fatalf("attach: got %+v", r)
	}

	r := s.handle(c, &plan9.Fcall{Type: plan9.Twalk, Tag: 2, Fid: 0, Newfid: 1, Wname: []string{"text"}})
	if r.Type != plan9.Rwalk || len(r.Wqid) != 1 {
		t.Fatalf("walk text: got %+v", r)
	}

	if r := s.handle(c, &plan9.Fcall{Type: plan9.Topen, Tag: 3, Fid: 1}); r.Type != plan9.Ropen {
		t.Fatalf("open: got %+v", r)
	}

	r = s.handle(c, &plan9.Fcall{Type: plan9.Tread, Tag: 4, Fid: 1, Offset: 0, Count: 1024})
	if r.Type != plan9.Rread || string(r.Data) != "hello world" {
		t.Fatalf("read: got %+v", r)
	}
}

func TestHandleReadTextRespectsOffsetAndCount(t *testing.T) {
	s := newTestServer("0123456789")
	c := &conn{fids: map[uint32]uint64{5: qidText}}

	r := s.handle(c, &plan9.Fcall{Type: plan9.Tread, Tag: 1, Fid: 5, Offset: 3, Count: 4})
	if string(r.Data) != "3456" {
		t.Fatalf("got %q", r.Data)
	}

	r = s.handle(c, &plan9.Fcall{Type: plan9.Tread, Tag: 2, Fid: 5, Offset: 8, Count: 100})
	if string(r.Data) != "89" {
		t.Fatalf("clamped read got %q", r.Data)
	}
}

func TestHandleReadNonTextReturnsEmpty(t *testing.T) {
	s := newTestServer("anything")
	c := &conn{fids: map[uint32]uint64{2: qidRoot}}
	r := s.handle(c, &plan9.Fcall{Type: plan9.Tread, Tag: 1, Fid: 2, Count: 10})
	if r.Type != plan9.Rread || len(r.Data) != 0 {
		t.Fatalf("got %+v", r)
	}
}

func TestHandleWriteCtlExecutesCommand(t *testing.T) {
	s := newTestServer("hello")
	c := &conn{fids: map[uint32]uint64{7: qidCtl}}

	r := s.handle(c, &plan9.Fcall{Type: plan9.Twrite, Tag: 1, Fid: 7, Data: []byte("a/X/")})
	if r.Type != plan9.Rwrite {
		t.Fatalf("write: got %+v", r)
	}
	if got := string(s.win.Text().Snapshot()); got != "helloX" {
		t.Fatalf("got %q", got)
	}
}

func TestHandleWriteCtlInvalidCommandErrors(t *testing.T) {
	s := newTestServer("hello")
	c := &conn{fids: map[uint32]uint64{7: qidCtl}}
	r := s.handle(c, &plan9.Fcall{Type: plan9.Twrite, Tag: 1, Fid: 7, Data: []byte("Z")})
	if r.Type != plan9.Rerror {
		t.Fatalf("got %+v, want Rerror", r)
	}
}

func TestHandleWriteNonCtlIsPermissionDenied(t *testing.T) {
	s := newTestServer("hello")
	c := &conn{fids: map[uint32]uint64{9: qidText}}
	r := s.handle(c, &plan9.Fcall{Type: plan9.Twrite, Tag: 1, Fid: 9, Data: []byte("x")})
	if r.Type != plan9.Rerror {
		t.Fatalf("got %+v, want Rerror", r)
	}
}

func TestHandleClunkRemovesFid(t *testing.T) {
	s := newTestServer("")
	c := &conn{fids: map[uint32]uint64{3: qidText}}
	s.handle(c, &plan9.Fcall{Type: plan9.Tclunk, Tag: 1, Fid: 3})
	if _, ok := c.fids[3]; ok {
		t.Fatal("expected Tclunk to remove the fid")
	}
}

func TestHandleUnsupportedType(t *testing.T) {
	s := newTestServer("")
	r := s.handle(&conn{fids: make(map[uint32]uint64)}, &plan9.Fcall{Type: 255, Tag: 1})
	if r.Type != plan9.Rerror {
		t.Fatalf("got %+v, want Rerror", r)
	}
}

func TestServerCloseWithoutListenIsNoop(t *testing.T) {
	s := newTestServer("")
	if err := s.Close(); err != nil {
		t.Fatalf("Close before ListenAndServe should be a no-op: %v", err)
	}
}
