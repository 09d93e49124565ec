package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/havenline/haven-backend/internal/data/repos/testutil"
	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
)

func TestCrisisEventRepoResolveLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "crisisrepo@example.com")
	conv := testutil.SeedConversation(t, ctx, tx, u.ID, types.ConversationActive)
	repo := NewCrisisEventRepo(db, testutil.Logger(t))

	rows, err := repo.Create(dbc, []*types.CrisisEvent{{
		ConversationID: conv.ID,
		UserID:         u.ID,
		SeverityLevel:  types.SeveritySevere,
		ActionTaken:    "crisis resources provided",
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	event := rows[0]

	unresolved, err := repo.ListUnresolvedByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListUnresolvedByUser: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0].ID != event.ID {
		t.Fatalf("unresolved=%+v, want the new event", unresolved)
	}

	if err := repo.Resolve(dbc, event.ID, "user connected with local support", time.Now().UTC()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	unresolved, err = repo.ListUnresolvedByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListUnresolvedByUser: %v", err)
	}
	if len(unresolved) != 0 {
		t.Fatalf("unresolved=%d, want 0 after resolution", len(unresolved))
	}

	got, err := repo.GetByID(dbc, event.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ResolvedAt == nil || got.ResolutionNotes == nil {
		t.Fatal("resolution fields were not stamped")
	}
}

func TestCrisisEventRepoResolveIsOneShot(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "crisisoneshot@example.com")
	conv := testutil.SeedConversation(t, ctx, tx, u.ID, types.ConversationActive)
	repo := NewCrisisEventRepo(db, testutil.Logger(t))

	// Postgres keeps microsecond precision; truncate for a stable compare.
	already := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	rows, err := repo.Create(dbc, []*types.CrisisEvent{{
		ConversationID: conv.ID,
		UserID:         u.ID,
		SeverityLevel:  types.SeverityModerate,
		ActionTaken:    "escalated for review",
		ResolvedAt:     testutil.PtrTime(already),
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = repo.Resolve(dbc, rows[0].ID, "second attempt", time.Now().UTC())
	if !errors.Is(err, pkgerr.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound for an already-resolved event", err)
	}

	got, err := repo.GetByID(dbc, rows[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(already) {
		t.Fatal("original resolution timestamp should be untouched")
	}
}
