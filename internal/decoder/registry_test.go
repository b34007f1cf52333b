package decoder

import "testing"

func TestNewRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(NewBEMServerDecoder(), NewBEMServerDecoder())
	if err == nil {
		t.Fatal("expected a duplicate-name registration error")
	}
}

func TestRegistryGet(t *testing.T) {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := r.Get("bemserver"); err != nil {
		t.Errorf("Get(bemserver): %v", err)
	}
	if _, err := r.Get("does-not-exist"); err == nil {
		t.Error("expected a NotFoundError for an unregistered name")
	}
}

func TestBuiltinHasNoDuplicates(t *testing.T) {
	if _, err := NewRegistry(Builtin()...); err != nil {
		t.Fatalf("Builtin() decoders should register cleanly: %v", err)
	}
}
