//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 8 {
		t.Fatalf("expected 8 products, got %d", len(products))
	}

	for _, p := range products {
		if p.ID == "" || p.Name == "" {
			t.Errorf("product missing identity: %+v", p)
		}
		if p.Price <= 0 {
			t.Errorf("product %s has non-positive price %v", p.ID, p.Price)
		}
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/tee-classic-black")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	p := decodeJSON[productResponse](t, resp)
	if p.ID != "tee-classic-black" {
		t.Errorf("id: got %q", p.ID)
	}
	if p.Name != "Classic Crew Neck Tee" {
		t.Errorf("name: got %q", p.Name)
	}
	if p.Price != 499 {
		t.Errorf("price: got %v, want 499", p.Price)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/does-not-exist")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusNotFound {
		t.Errorf("error code: got %d", body.Code)
	}
}
