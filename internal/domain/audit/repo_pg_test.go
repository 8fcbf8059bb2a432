package audit

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// brokenRows yields no rows and reports a deferred iteration error, the way
// pgx surfaces a connection dropped mid-result.
type brokenRows struct {
	err error
}

func (r *brokenRows) Close()                                       {}
func (r *brokenRows) Err() error                                   { return r.err }
func (r *brokenRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *brokenRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *brokenRows) Next() bool                                   { return false }
func (r *brokenRows) Scan(_ ...any) error                          { return nil }
func (r *brokenRows) Values() ([]any, error)                       { return nil, r.err }
func (r *brokenRows) RawValues() [][]byte                          { return nil }
func (r *brokenRows) Conn() *pgx.Conn                              { return nil }

func TestCollectEntriesSurfacesIterationError(t *testing.T) {
	want := errors.New("connection lost")
	entries, _, err := collectEntries(&brokenRows{err: want}, 0)
	if !errors.Is(err, want) {
		t.Fatalf("expected iteration error to propagate, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
