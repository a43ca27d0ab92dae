package cartapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

func TestListItemsDecodesCart(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/u1/cart" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"items":[
			{"id":"ci-1","product_id":"p1","vendor_id":"v1","name":"Apples","unit_price":10000,"quantity":2},
			{"id":"ci-2","product_id":"p2","vendor_id":"v2","name":"Bread","unit_price":5000,"quantity":1}
		]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	items, err := client.ListItems(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].UnitPrice != 10000 || items[0].Quantity != 2 {
		t.Fatalf("unexpected first item %+v", items[0])
	}
}

func TestRemoveItemRequiresIDs(t *testing.T) {
	t.Parallel()

	client, err := NewClient("http://cart.internal")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.RemoveItem(context.Background(), "u1", " ")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestRemoveItemIssuesDelete(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.RemoveItem(context.Background(), "u1", "ci-1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/users/u1/cart/items/ci-1" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
}
