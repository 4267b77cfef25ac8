package agent

import (
	"context"
	"encoding/json"
	"testing"
)

type staticTool struct {
	name     string
	schema   string
	execFunc func(ctx context.Context, params json.RawMessage) (*Result, error)
}

func (s *staticTool) Name() string            { return s.name }
func (s *staticTool) Description() string     { return "test tool " + s.name }
func (s *staticTool) Schema() json.RawMessage { return json.RawMessage(s.schema) }
func (s *staticTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	if s.execFunc != nil {
		return s.execFunc(ctx, params)
	}
	return Ok(map[string]string{"tool": s.name}), nil
}

func TestRegistryClosedCatalog(t *testing.T) {
	reg, err := NewRegistry(
		&staticTool{name: "beta", schema: `{}`},
		&staticTool{name: "alpha", schema: `{}`},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if _, ok := reg.Lookup("alpha"); !ok {
		t.Error("Lookup(alpha) missed")
	}
	if _, ok := reg.Lookup("gamma"); ok {
		t.Error("Lookup(gamma) found an unregistered tool")
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("Names() = %v, want sorted [alpha beta]", names)
	}

	defs := reg.Definitions()
	if len(defs) != 2 {
		t.Fatalf("Definitions() len = %d", len(defs))
	}
	if defs[0].Name != "alpha" || defs[0].Description == "" {
		t.Errorf("definition = %+v", defs[0])
	}
}

func TestRegistryRejectsBadTools(t *testing.T) {
	if _, err := NewRegistry(&staticTool{name: ""}); err == nil {
		t.Error("empty name accepted")
	}
	if _, err := NewRegistry(
		&staticTool{name: "dup"},
		&staticTool{name: "dup"},
	); err == nil {
		t.Error("duplicate name accepted")
	}
}
