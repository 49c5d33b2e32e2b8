package flow

import (
	"context"
	"strings"
	"testing"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry[int]()

	if err := r.Register("answer", 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := r.Get("answer")
	if !ok {
		t.Fatal("expected registered entry")
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry[int]()

	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected lookup miss")
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	r := NewRegistry[int]()

	err := r.Register("", 1)
	if err == nil {
		t.Fatal("expected error for empty name")
	}
	if !strings.Contains(err.Error(), "empty name") {
		t.Fatalf("expected empty-name error, got %q", err.Error())
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewRegistry[int]()

	if err := r.Register("dup", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.Register("dup", 2)
	if err == nil {
		t.Fatal("expected error for duplicate name")
	}
	if !strings.Contains(err.Error(), `"dup"`) {
		t.Fatalf("expected name in error, got %q", err.Error())
	}

	got, _ := r.Get("dup")
	if got != 1 {
		t.Fatalf("expected first registration to stand, got %d", got)
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry[int]()
	r.MustRegister("dup", 1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate MustRegister")
		}
	}()
	r.MustRegister("dup", 2)
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry[int]()
	r.MustRegister("gamma", 3)
	r.MustRegister("alpha", 1)
	r.MustRegister("beta", 2)

	got := r.List()
	want := []string{"alpha", "beta", "gamma"}
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRegistryHoldsTransforms(t *testing.T) {
	r := NewRegistry[Transform]()
	r.MustRegister("triple", TransformFunc("triple", func(_ context.Context, elem any) (any, error) {
		return elem.(int) * 3, nil
	}))

	tr, ok := r.Get("triple")
	if !ok {
		t.Fatal("expected registered transform")
	}

	got, err := tr.Execute(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 21 {
		t.Fatalf("expected 21, got %v", got)
	}
}
