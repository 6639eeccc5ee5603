package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/Cheese-Checkers/internal/checkers"
)

func TestStoreVersioning(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	g := checkers.NewGame("g-v", alice, bob)

	if err := st.Save(ctx, 2, g.Snapshot()); err != nil {
		t.Fatalf("Save v2: %v", err)
	}
	if err := st.Save(ctx, 1, g.Snapshot()); !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("older write err=%v", err)
	}
	if err := st.Save(ctx, 3, g.Snapshot()); err != nil {
		t.Fatalf("Save v3: %v", err)
	}
	_, v, err := st.Load(ctx, "g-v")
	if err != nil || v != 3 {
		t.Fatalf("Load version=%d err=%v", v, err)
	}
	if ttl := mr.TTL(gameKey("g-v")); ttl != time.Hour {
		t.Fatalf("ttl = %s", ttl)
	}
}

func TestStoreIndexAndDelete(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)
	g := checkers.NewGame("g-i", alice, bob)
	if err := st.Save(ctx, 1, g.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if err := st.Index(ctx, "g-i", alice.ID, bob.ID, " "); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if ids, _ := st.GamesByUser(ctx, alice.ID); len(ids) != 1 {
		t.Fatalf("index = %v", ids)
	}
	if err := st.Delete(ctx, "g-i", alice.ID, bob.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if snap, _, err := st.Load(ctx, "g-i"); snap != nil || err != nil {
		t.Fatalf("Load after delete = %v, %v", snap, err)
	}
	if ids, _ := st.GamesByUser(ctx, bob.ID); len(ids) != 0 {
		t.Fatalf("index after delete = %v", ids)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:secret@cache:6380/3")
	if err != nil {
		t.Fatal(err)
	}
	if opts.Addr != "cache:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("opts = %+v", opts)
	}
	if _, err := parseRedisURL("http://cache"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
