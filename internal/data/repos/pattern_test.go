package repos

import (
	"context"
	"testing"
	"time"

	"github.com/havenline/haven-backend/internal/data/repos/testutil"
	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
)

func TestEmotionalPatternRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "patternrepo@example.com")
	repo := NewEmotionalPatternRepo(db, testutil.Logger(t))

	now := time.Now().UTC()

	// Three sightings within a minute: count=3, confidence saturates near 100.
	for i := 0; i < 3; i++ {
		if _, err := repo.Upsert(dbc, u.ID, types.PatternTypeEmotion, types.StateAnxiety, now.Add(time.Duration(i)*20*time.Second)); err != nil {
			t.Fatalf("Upsert %d: %v", i, err)
		}
	}

	row, err := repo.GetByKey(dbc, u.ID, types.PatternTypeEmotion, types.StateAnxiety)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if row.OccurrenceCount != 3 {
		t.Fatalf("occurrence_count=%d, want 3", row.OccurrenceCount)
	}
	if row.ConfidenceScore < 99 {
		t.Fatalf("confidence_score=%v, want ~100", row.ConfidenceScore)
	}
	if !row.FirstDetected.Before(row.LastDetected) {
		t.Fatalf("expected last_detected after first_detected")
	}

	sig, err := repo.ListSignificant(dbc, u.ID, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("ListSignificant: %v", err)
	}
	if len(sig) != 1 || sig[0].PatternValue != types.StateAnxiety {
		t.Fatalf("ListSignificant: unexpected result %+v", sig)
	}
}

func TestEmotionalPatternRepoDecayExclusion(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "patterndecay@example.com")
	repo := NewEmotionalPatternRepo(db, testutil.Logger(t))

	firstSeen := time.Now().UTC().Add(-8 * 24 * time.Hour)
	if _, err := repo.Upsert(dbc, u.ID, types.PatternTypeEmotion, types.StateDepression, firstSeen); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Eight days on with no reinforcement: confidence has decayed to zero
	// and the pattern drops out of the significant set.
	sig, err := repo.ListSignificant(dbc, u.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("ListSignificant: %v", err)
	}
	if len(sig) != 0 {
		t.Fatalf("expected stale pattern excluded, got %+v", sig)
	}
}
