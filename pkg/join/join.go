// Package join drives the generic three-message interactive Join
// protocol shared by every scheme: a pure step(state, inbound) ->
// (state', outbound) exchange between a member and the issuing
// manager, with strict message ordering.
package join

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/groupsig/pkg/gserr"
	"github.com/luxfi/groupsig/pkg/scheme"
)

// Message is the CBOR wire envelope exchanged between Member and
// Manager.
type Message struct {
	Seq  int    `cbor:"seq"`
	Body []byte `cbor:"body"`
}

func (m Message) Marshal() ([]byte, error) {
	b, err := cbor.Marshal(m)
	if err != nil {
		return nil, gserr.New(gserr.Internal, "join.Message.Marshal", err)
	}
	return b, nil
}

func UnmarshalMessage(data []byte) (Message, error) {
	var m Message
	if err := cbor.Unmarshal(data, &m); err != nil {
		return Message{}, gserr.New(gserr.Serialisation, "join.UnmarshalMessage", err)
	}
	return m, nil
}

// MemberSession tracks one Member's side of a Join protocol instance.
// A message whose seq does not match the local next-expected value is
// rejected.
type MemberSession struct {
	code     scheme.Code
	grp      scheme.GroupKey
	mem      scheme.MemberKey
	nextSeq  int
	finished bool
}

// NewMemberSession starts a Member-side session. partial is the scheme's
// freshly-initialized (empty) member key.
func NewMemberSession(code scheme.Code, grp scheme.GroupKey, partial scheme.MemberKey) *MemberSession {
	return &MemberSession{code: code, grp: grp, mem: partial}
}

// Accept processes one inbound message from the Manager and returns the
// Member's reply (nil once finished).
func (s *MemberSession) Accept(ops scheme.Ops, in Message) (reply *Message, err error) {
	if s.finished {
		return nil, gserr.New(gserr.ProtocolFail, "join.MemberSession.Accept", fmt.Errorf("session already finished"))
	}
	if in.Seq != s.nextSeq {
		return nil, gserr.New(gserr.ProtocolFail, "join.MemberSession.Accept",
			fmt.Errorf("expected seq %d, got %d", s.nextSeq, in.Seq))
	}
	out, next, finished, err := ops.JoinMember(s.mem, in.Seq, in.Body, s.grp)
	if err != nil {
		return nil, gserr.New(gserr.ProtocolFail, "join.MemberSession.Accept", err)
	}
	s.mem = next
	s.finished = finished
	if out == nil {
		s.nextSeq = in.Seq + 1
		return nil, nil
	}
	// This session's own reply consumes seq in.Seq+1; the next inbound
	// message it must accept is the other side's reply to that, at
	// in.Seq+2; it never re-receives its own outbound seq.
	replySeq := in.Seq + 1
	s.nextSeq = in.Seq + 2
	return &Message{Seq: replySeq, Body: out}, nil
}

func (s *MemberSession) Finished() bool              { return s.finished }
func (s *MemberSession) MemberKey() scheme.MemberKey { return s.mem }

// ManagerSession tracks the Manager's side.
type ManagerSession struct {
	code      scheme.Code
	grp       scheme.GroupKey
	mgr       scheme.ManagerKey
	appendGML func(scheme.GMLEntry) (uint64, error)
	nextSeq   int
	finished  bool
}

// NewManagerSession starts a Manager-side session. appendGML may be nil
// for schemes without a GML (DL21/DL21-SEQ).
func NewManagerSession(code scheme.Code, grp scheme.GroupKey, mgr scheme.ManagerKey, appendGML func(scheme.GMLEntry) (uint64, error)) *ManagerSession {
	return &ManagerSession{code: code, grp: grp, mgr: mgr, appendGML: appendGML}
}

func (s *ManagerSession) Accept(ops scheme.Ops, in Message) (reply *Message, err error) {
	if s.finished {
		return nil, gserr.New(gserr.ProtocolFail, "join.ManagerSession.Accept", fmt.Errorf("session already finished"))
	}
	if in.Seq != s.nextSeq {
		return nil, gserr.New(gserr.ProtocolFail, "join.ManagerSession.Accept",
			fmt.Errorf("expected seq %d, got %d", s.nextSeq, in.Seq))
	}
	out, finished, err := ops.JoinManager(s.mgr, in.Seq, in.Body, s.grp, s.appendGML)
	if err != nil {
		return nil, gserr.New(gserr.ProtocolFail, "join.ManagerSession.Accept", err)
	}
	s.finished = finished
	if out == nil {
		s.nextSeq = in.Seq + 1
		return nil, nil
	}
	replySeq := in.Seq + 1
	s.nextSeq = in.Seq + 2
	return &Message{Seq: replySeq, Body: out}, nil
}

func (s *ManagerSession) Finished() bool { return s.finished }

// RunLocal drives a complete Join handshake in-process between a fresh
// member and manager session, for tests and CLI simulation mode. It
// honours each scheme's Descriptor.JoinStart.
func RunLocal(ops scheme.Ops, grp scheme.GroupKey, mgr scheme.ManagerKey, partialMem scheme.MemberKey, appendGML func(scheme.GMLEntry) (uint64, error)) (scheme.MemberKey, error) {
	desc := ops.Descriptor()
	mem := NewMemberSession(desc.Code, grp, partialMem)
	mgrS := NewManagerSession(desc.Code, grp, mgr, appendGML)

	var pending *Message
	if desc.JoinStart == 0 {
		// Manager speaks first: prime with a seq=0 empty trigger.
		out, finished, err := ops.JoinManager(mgr, 0, nil, grp, appendGML)
		if err != nil {
			return nil, gserr.New(gserr.ProtocolFail, "join.RunLocal", err)
		}
		mgrS.nextSeq = 1
		mgrS.finished = finished
		pending = &Message{Seq: 0, Body: out}
	} else {
		out, next, finished, err := ops.JoinMember(partialMem, 0, nil, grp)
		if err != nil {
			return nil, gserr.New(gserr.ProtocolFail, "join.RunLocal", err)
		}
		mem.mem = next
		mem.nextSeq = 1
		mem.finished = finished
		pending = &Message{Seq: 0, Body: out}
	}

	turnIsMember := desc.JoinStart == 0
	for pending != nil && !(mem.Finished() && mgrS.Finished()) {
		var next *Message
		var err error
		if turnIsMember {
			next, err = mem.Accept(ops, *pending)
		} else {
			next, err = mgrS.Accept(ops, *pending)
		}
		if err != nil {
			return nil, err
		}
		pending = next
		turnIsMember = !turnIsMember
	}
	return mem.MemberKey(), nil
}
