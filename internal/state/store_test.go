package state

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

var _ Store = (*MemoryStore)(nil)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	store := NewMemoryStore()

	if _, ok := store.Get("missing"); ok {
		t.Error("Get on empty store should report absent")
	}

	if err := store.Set("current_user", `{"id":"user_1"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := store.Get("current_user")
	if !ok {
		t.Fatal("expected current_user to be present")
	}
	if got != `{"id":"user_1"}` {
		t.Errorf("Get = %q, want %q", got, `{"id":"user_1"}`)
	}

	if err := store.Set("current_user", `{"id":"user_2"}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _ = store.Get("current_user")
	if got != `{"id":"user_2"}` {
		t.Errorf("last write should win, got %q", got)
	}

	if err := store.Delete("current_user"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.Get("current_user"); ok {
		t.Error("key should be absent after Delete")
	}

	if err := store.Delete("never-set"); err != nil {
		t.Errorf("Delete of absent key should succeed, got %v", err)
	}
}

func TestMemoryStore_ClosedRejectsWrites(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set("k", "v")
	_ = store.Close()

	if err := store.Set("k", "v2"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close: got %v, want ErrClosed", err)
	}
	if err := store.Delete("k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Delete after Close: got %v, want ErrClosed", err)
	}
	if v, ok := store.Get("k"); !ok || v != "v" {
		t.Errorf("Get after Close = (%q, %v), want (\"v\", true)", v, ok)
	}
}

func TestMemoryStore_LoadReplacesContents(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set("stale", "x")
	store.Load(map[string]string{
		AlertsKey("a"):   "[]",
		SettingsKey("a"): "{}",
	})

	if _, ok := store.Get("stale"); ok {
		t.Error("Load should drop keys not in the new contents")
	}
	if v, ok := store.Get(AlertsKey("a")); !ok || v != "[]" {
		t.Errorf("alerts_a = (%q, %v), want (\"[]\", true)", v, ok)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%5)
			for j := range 100 {
				_ = store.Set(key, fmt.Sprintf("%d", j))
				store.Get(key)
			}
		}(i)
	}
	wg.Wait()

	for i := range 5 {
		if _, ok := store.Get(fmt.Sprintf("k%d", i)); !ok {
			t.Errorf("k%d missing after concurrent writes", i)
		}
	}
}

func TestKeyNames(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"settings", SettingsKey("user_42"), "settings_user_42"},
		{"alerts", AlertsKey("user_42"), "alerts_user_42"},
		{"current user", CurrentUserKey, "current_user"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("key = %q, want %q", tc.got, tc.want)
			}
		})
	}
}

func TestPermissionString(t *testing.T) {
	if got := Permission("").String(); got != "default" {
		t.Errorf("empty permission String() = %q, want default", got)
	}
	if got := PermissionGranted.String(); got != "granted" {
		t.Errorf("granted String() = %q, want granted", got)
	}
}
