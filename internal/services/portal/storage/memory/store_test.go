package memory

import (
	"context"
	"testing"

	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestReturnedAccountsAreCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	discount := 10
	if err := store.PutAccount(ctx, storage.Account{ID: "a1", Email: "a@b", DiscountPercent: &discount}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ := store.GetAccount(ctx, "a1")
	*got.DiscountPercent = 99
	again, _ := store.GetAccount(ctx, "a1")
	if *again.DiscountPercent != 10 {
		t.Fatal("mutating a returned account must not change the store")
	}
}

func TestCancelledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.PutAccount(ctx, storage.Account{ID: "a1"}); err == nil {
		t.Fatal("expected context error")
	}
	if _, err := store.ListActivity(ctx, 5); err == nil {
		t.Fatal("expected context error")
	}
}
