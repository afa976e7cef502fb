package commands

import (
	"context"

	"github.com/leapstack-labs/sqlpad/internal/engine"
	"github.com/leapstack-labs/sqlpad/pkg/result"
)

// session tracks the console's current result and how much of it is shown.
// A failed query clears the previous result.
type session struct {
	eng     *engine.Engine
	pager   result.Pager
	current *result.ArrowTable
}

func newSession(eng *engine.Engine) *session {
	return &session{eng: eng}
}

// run executes sqlStr and installs its result at the initial row limit.
func (s *session) run(ctx context.Context, sqlStr string) (result.Grid, error) {
	s.clear()

	tbl, err := s.eng.Query(ctx, sqlStr)
	if err != nil {
		return result.Grid{}, err
	}
	return s.install(tbl), nil
}

// install replaces the current result with tbl, taking ownership of it.
func (s *session) install(tbl *result.ArrowTable) result.Grid {
	s.clear()
	s.current = tbl
	s.pager.Reset(tbl)

	g, _ := s.pager.Grid()
	return g
}

// more grows the row limit by one step and rematerializes the result.
func (s *session) more() (result.Grid, bool) {
	if s.current == nil {
		return result.Grid{}, false
	}
	s.pager.More()
	return s.pager.Grid()
}

// total returns the row count of the current result.
func (s *session) total() int {
	if s.current == nil {
		return 0
	}
	return s.current.NumRows()
}

func (s *session) clear() {
	if s.current != nil {
		s.current.Release()
		s.current = nil
	}
	s.pager.Reset(nil)
}
