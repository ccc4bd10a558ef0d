package studio

import (
	"errors"
	"testing"
)

func TestRegistry_SetReplacesAndRevokesPrevious(t *testing.T) {
	reg := NewRegistry(3)
	first := &fakeResource{id: "a"}
	second := &fakeResource{id: "b"}

	if err := reg.Set(1, first); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := reg.Set(1, second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if first.revoked != 1 {
		t.Errorf("superseded clip revoked %d times, want 1", first.revoked)
	}
	if second.revoked != 0 {
		t.Errorf("current clip revoked %d times, want 0", second.revoked)
	}
	got, ok := reg.Get(1)
	if !ok || got.ID() != "b" {
		t.Errorf("Get(1) = %v, %v; want b", got, ok)
	}
}

func TestRegistry_SetSameResourceDoesNotRevoke(t *testing.T) {
	reg := NewRegistry(1)
	res := &fakeResource{id: "a"}
	reg.Set(0, res)
	reg.Set(0, res)

	if res.revoked != 0 {
		t.Errorf("revoked %d times, want 0", res.revoked)
	}
}

func TestRegistry_CloseRevokesEverythingOnce(t *testing.T) {
	reg := NewRegistry(4)
	resources := []*fakeResource{{id: "a"}, {id: "b"}, {id: "c"}}
	reg.Set(0, resources[0])
	reg.Set(2, resources[1])
	reg.Set(3, resources[2])

	if err := reg.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := reg.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	for _, res := range resources {
		if res.revoked != 1 {
			t.Errorf("clip %s revoked %d times, want 1", res.id, res.revoked)
		}
	}
	if reg.Count() != 0 {
		t.Errorf("Count() after Close = %d, want 0", reg.Count())
	}
	if err := reg.Set(0, &fakeResource{id: "late"}); err == nil {
		t.Error("Set() after Close should fail")
	}
}

func TestRegistry_RemoveRevokes(t *testing.T) {
	reg := NewRegistry(2)
	res := &fakeResource{id: "a"}
	reg.Set(1, res)

	if err := reg.Remove(1); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if res.revoked != 1 {
		t.Errorf("revoked %d times, want 1", res.revoked)
	}
	if reg.Has(1) {
		t.Error("Has(1) = true after Remove")
	}
	if err := reg.Remove(1); err != nil {
		t.Errorf("Remove() of absent index error = %v", err)
	}
}

func TestRegistry_IndexOutOfRange(t *testing.T) {
	reg := NewRegistry(2)
	for _, index := range []int{-1, 2, 10} {
		err := reg.Set(index, &fakeResource{id: "x"})
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Set(%d) error = %v, want ErrIndexOutOfRange", index, err)
		}
	}
}

func TestRegistry_NextAvailable(t *testing.T) {
	reg := NewRegistry(5)
	reg.Set(3, &fakeResource{id: "d"})
	reg.Set(1, &fakeResource{id: "b"})

	tests := []struct {
		from int
		want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{2, 3},
		{4, -1},
		{9, -1},
	}
	for _, tt := range tests {
		if got := reg.NextAvailable(tt.from); got != tt.want {
			t.Errorf("NextAvailable(%d) = %d, want %d", tt.from, got, tt.want)
		}
	}

	indices := reg.Indices()
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 3 {
		t.Errorf("Indices() = %v, want [1 3]", indices)
	}
}
