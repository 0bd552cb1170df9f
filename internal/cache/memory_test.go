package cache

import (
	"testing"
	"time"

	"github.com/trialgraph/trialgraph/internal/model"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, 5*time.Minute)

	key := Key("oral tablet daily")
	want := model.InferenceResult{Route: "Oral", DosageForm: "Tablet"}

	if _, found := c.Get(key); found {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(key, want, time.Minute)

	got, found := c.Get(key)
	if !found {
		t.Fatal("expected hit after Set")
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache(time.Minute, 5*time.Minute)
	c.Set(Key("a"), model.UnknownResult(), time.Minute)

	c.Clear()

	if _, found := c.Get(Key("a")); found {
		t.Error("expected miss after Clear")
	}
}

func TestKey_Distinct(t *testing.T) {
	if Key("oral tablet") == Key("iv infusion") {
		t.Error("distinct texts must not collide")
	}
	if Key("oral tablet") != Key("oral tablet") {
		t.Error("key must be deterministic")
	}
}
