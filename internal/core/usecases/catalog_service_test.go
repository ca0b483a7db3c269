package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/usecases"
)

func TestCatalogService_DestinationIndex(t *testing.T) {
	svc := usecases.NewCatalogService(fixtureRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		want int
	}{
		{"CocaCola", 0},
		{"Pepsi", 1},
		{"Manzana", 2},
		{"pepsi", domain.NoTarget},
		{"", domain.NoTarget},
		{"Leche", domain.NoTarget},
	}
	for _, tt := range tests {
		got, err := svc.DestinationIndex(ctx, tt.name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("DestinationIndex(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestCatalogService_NextDestination(t *testing.T) {
	svc := usecases.NewCatalogService(fixtureRepo(), nil)
	ctx := context.Background()

	idx, d, ok, err := svc.NextDestination(ctx, 0)
	if err != nil || !ok {
		t.Fatalf("expected next destination, got ok=%v err=%v", ok, err)
	}
	if idx != 1 || d.Name != "Pepsi" {
		t.Errorf("expected Pepsi at 1, got %s at %d", d.Name, idx)
	}

	if _, _, ok, _ := svc.NextDestination(ctx, 2); ok {
		t.Error("expected no destination after the last one")
	}
	if _, _, ok, _ := svc.NextDestination(ctx, domain.NoTarget); ok {
		t.Error("expected no destination after NoTarget")
	}
}

func TestCatalogService_UsesCache(t *testing.T) {
	repo := fixtureRepo()
	cache := newMockCache()
	svc := usecases.NewCatalogService(repo, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		dests, err := svc.Destinations(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(dests) != 3 {
			t.Fatalf("expected 3 destinations, got %d", len(dests))
		}
	}
	if repo.calls != 1 {
		t.Errorf("expected 1 repository call, got %d", repo.calls)
	}

	svc.Invalidate(ctx)
	_, _ = svc.Destinations(ctx)
	if repo.calls != 2 {
		t.Errorf("expected reload after invalidate, got %d calls", repo.calls)
	}
}

func TestCatalogService_RepoError(t *testing.T) {
	boom := errors.New("db down")
	repo := &mockCatalogRepo{
		listDestinationsFn: func(ctx context.Context) ([]domain.Destination, error) { return nil, boom },
	}
	svc := usecases.NewCatalogService(repo, nil)

	if _, err := svc.Destinations(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped repo error, got %v", err)
	}
	idx, err := svc.DestinationIndex(context.Background(), "Pepsi")
	if err == nil || idx != domain.NoTarget {
		t.Errorf("expected NoTarget and error, got %d, %v", idx, err)
	}
}

func TestCatalogService_QueueNotFound(t *testing.T) {
	svc := usecases.NewCatalogService(fixtureRepo(), nil)
	if _, err := svc.Queue(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
