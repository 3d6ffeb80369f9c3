package identity

import "testing"

func TestCache(t *testing.T) {
	c := NewCache()

	if _, ok := c.Get("nope"); ok {
		t.Error("Get() on empty cache returned an entry")
	}

	id := &Identity{ID: "abc", Email: "a@b.cd", Role: RoleStudent}
	c.Put(id)
	got, ok := c.Get("abc")
	if !ok {
		t.Fatal("Put() entry not found")
	}
	if got != id {
		t.Error("Get() returned a different pointer")
	}

	// most recent resolution wins
	newer := &Identity{ID: "abc", Email: "a@b.cd", Role: RoleAdmin}
	c.Put(newer)
	if got, _ = c.Get("abc"); got != newer {
		t.Error("Put() did not replace the existing entry")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	// no-ops
	c.Put(nil)
	c.Put(&Identity{Email: "no-id@b.cd"})
	if c.Len() != 1 {
		t.Errorf("Len() after no-op puts = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", c.Len())
	}
	if _, ok = c.Get("abc"); ok {
		t.Error("Get() after Clear() returned an entry")
	}
}
