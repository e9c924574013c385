package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"studyquiz-service/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewSession("s1", "quiz-1", "u1", 30)
	store.Put(session)
	if !mr.Exists("quiz:attempt:s1") {
		t.Fatalf("expected redis liveness key to be set")
	}
	if got, ok := store.Get("s1"); !ok || got != session {
		t.Fatalf("expected stored session back")
	}

	store.Delete("s1")
	if mr.Exists("quiz:attempt:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed from local map")
	}
}
