package appctx

import (
	"context"
	"testing"
)

func TestGetSetRoundTrip(t *testing.T) {
	ctx := Set(context.Background(), ContextKeyClerkName, "mya")
	ctx = Set(ctx, ContextKeyClerkId, 7)
	ctx = Set(ctx, ContextKeyAllowPostedEdit, true)

	if v, ok := GetString(ctx, ContextKeyClerkName); !ok || v != "mya" {
		t.Fatalf("clerk name: got %q ok=%v", v, ok)
	}
	if v, ok := GetInt(ctx, ContextKeyClerkId); !ok || v != 7 {
		t.Fatalf("clerk id: got %d ok=%v", v, ok)
	}
	if v, ok := GetBool(ctx, ContextKeyAllowPostedEdit); !ok || !v {
		t.Fatalf("allow posted edit: got %v ok=%v", v, ok)
	}
	if _, ok := GetString(ctx, ContextKeyRole); ok {
		t.Fatalf("unset role should not be found")
	}
}
