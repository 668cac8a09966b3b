// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

// stateEntry represents the decoding state of a constructed TLV.
type stateEntry struct {
	Header

	// Start is the input offset of the first identifier octet of the TLV.
	Start int

	// Limit is the offset at which the value of the TLV must end at the latest.
	// This is the end indicated by the header, but may be less if a surrounding
	// TLV is more restrictive. For indefinite-length TLVs this is the limit of
	// the surrounding TLV.
	Limit int
}

// definite reports whether e ends at e.Limit.
func (e *stateEntry) definite() bool {
	return e.Length != LengthIndefinite
}

// state maintains the state of a [Decoder]. The state consists of a stack of
// TLVs that are currently being processed. At the bottom of the stack there is
// a virtual constructed indefinite-length TLV representing the root level of
// the input.
type state struct {
	stack []stateEntry
	curr  stateEntry // top entry of the stack
}

// reset clears the state to a single root element limited by n bytes. The
// allocated stack space is reused.
func (s *state) reset(n int) {
	if s.stack == nil {
		s.stack = make([]stateEntry, 0, 10)
	}
	s.stack = s.stack[:0]
	s.curr = stateEntry{
		Header: Header{Length: LengthIndefinite, Constructed: true},
		Limit:  n,
	}
}

// root indicates whether s is currently at the root level.
func (s *state) root() bool {
	return len(s.stack) == 0
}

// push puts h onto the stack, indicating that the value of h starting at
// offset start with contents beginning at offset contents is now being
// processed.
func (s *state) push(h Header, start, contents int) {
	limit := s.curr.Limit
	if h.Length != LengthIndefinite {
		limit = min(limit, contents+h.Length)
	}
	s.stack = append(s.stack, s.curr)
	s.curr = stateEntry{Header: h, Start: start, Limit: limit}
}

// pop removes the topmost element from the stack. This indicates that
// processing of the topmost element is completed.
func (s *state) pop() {
	s.curr = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}
