package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/navigation"
	"github.com/samirrijal/arnav/internal/core/usecases"
)

var (
	atCocaCola = domain.LocationReading{Location: domain.GeoPoint{Lat: 25.6487015, Lon: -100.2898314}}
	farAway    = domain.LocationReading{Location: domain.GeoPoint{Lat: 25.6400, Lon: -100.2800}}
	upright    = domain.OrientationReading{Alpha: f(10), Beta: f(90), Gamma: f(0)}
)

func TestSession_WaitsForBothStreams(t *testing.T) {
	svc := newNavService(usecases.PolicyFixed)
	target, _ := svc.ResolveTarget(context.Background(), "Manzana", nil)
	s := usecases.NewSession("s1", svc, target)

	st, err := s.UpdateLocation(context.Background(), farAway)
	if err != nil {
		t.Fatal(err)
	}
	if st != nil {
		t.Fatal("expected no state before orientation")
	}

	st, err = s.UpdateOrientation(context.Background(), upright)
	if err != nil {
		t.Fatal(err)
	}
	if st == nil {
		t.Fatal("expected a state once both streams reported")
	}
	if s.Last() == nil || s.Last().DistanceMeters != st.DistanceMeters {
		t.Error("Last() does not reflect the latest tick")
	}
}

func TestSession_RejectsIncompleteOrientation(t *testing.T) {
	svc := newNavService(usecases.PolicyFixed)
	target, _ := svc.ResolveTarget(context.Background(), "Manzana", nil)
	s := usecases.NewSession("s1", svc, target)
	ctx := context.Background()

	_, _ = s.UpdateLocation(ctx, farAway)
	first, _ := s.UpdateOrientation(ctx, upright)

	st, err := s.UpdateOrientation(ctx, domain.OrientationReading{Alpha: nil, Beta: f(10), Gamma: f(10)})
	if !errors.Is(err, domain.ErrIncompleteOrientation) {
		t.Fatalf("expected ErrIncompleteOrientation, got %v", err)
	}
	if st != nil {
		t.Error("rejected reading must not produce a state")
	}

	// the previous orientation is still used
	again, err := s.UpdateLocation(ctx, farAway)
	if err != nil {
		t.Fatal(err)
	}
	if again.ScreenOffset != first.ScreenOffset || again.Visible != first.Visible {
		t.Errorf("expected last good orientation to stay in effect: %+v vs %+v", again, first)
	}
}

func TestSession_AcceptsZeroAxes(t *testing.T) {
	svc := newNavService(usecases.PolicyFixed)
	target, _ := svc.ResolveTarget(context.Background(), "Manzana", nil)
	s := usecases.NewSession("s1", svc, target)

	_, _ = s.UpdateLocation(context.Background(), farAway)
	st, err := s.UpdateOrientation(context.Background(), domain.OrientationReading{Alpha: f(0), Beta: f(0), Gamma: f(0)})
	if err != nil || st == nil {
		t.Fatalf("expected zero readings to be accepted, got %v", err)
	}
}

func TestSession_RejectsInvalidLocation(t *testing.T) {
	svc := newNavService(usecases.PolicyFixed)
	target, _ := svc.ResolveTarget(context.Background(), "Manzana", nil)
	s := usecases.NewSession("s1", svc, target)

	_, err := s.UpdateLocation(context.Background(), domain.LocationReading{Location: domain.GeoPoint{Lat: 120, Lon: 0}})
	if !errors.Is(err, domain.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestSession_ArrivalWithoutAdvance(t *testing.T) {
	svc := newNavService(usecases.PolicyFixed)
	target, _ := svc.ResolveTarget(context.Background(), "CocaCola", nil)
	pub := &mockPublisher{}
	s := usecases.NewSession("s1", svc, target, usecases.WithPublisher(pub))
	ctx := context.Background()

	_, _ = s.UpdateOrientation(ctx, upright)
	st, err := s.UpdateLocation(ctx, atCocaCola)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Arrived {
		t.Fatal("expected arrival at the destination point")
	}
	_, _ = s.UpdateLocation(ctx, atCocaCola)

	if s.Target().Name != "CocaCola" {
		t.Errorf("target must not change without auto-advance, got %s", s.Target().Name)
	}
	if len(pub.arrivals) != 1 {
		t.Errorf("expected exactly one arrival event, got %d", len(pub.arrivals))
	}
	if len(pub.states) != 2 {
		t.Errorf("expected 2 published states, got %d", len(pub.states))
	}
}

func TestSession_AutoAdvance(t *testing.T) {
	svc := newNavService(usecases.PolicyFixed)
	ctx := context.Background()
	target, _ := svc.ResolveTarget(ctx, "CocaCola", nil)
	pub := &mockPublisher{}
	s := usecases.NewSession("s1", svc, target, usecases.WithPublisher(pub), usecases.WithAutoAdvance(true))

	_, _ = s.UpdateOrientation(ctx, upright)

	// CocaCola and Pepsi are ~1.4m apart, so one fix reaches both in turn.
	_, _ = s.UpdateLocation(ctx, atCocaCola)
	if got := s.Target().Name; got != "Pepsi" {
		t.Fatalf("expected advance to Pepsi, got %q", got)
	}
	_, _ = s.UpdateLocation(ctx, atCocaCola)
	if got := s.Target().Name; got != "Manzana" {
		t.Fatalf("expected advance to Manzana, got %q", got)
	}

	_, _ = s.UpdateLocation(ctx, domain.LocationReading{Location: testDestinations[2].Location})
	if s.Target().Mode != domain.ModeQueue {
		t.Fatalf("expected queue-mode after the last destination, got %+v", s.Target())
	}

	if len(pub.arrivals) != 3 {
		t.Fatalf("expected 3 arrival events, got %d", len(pub.arrivals))
	}
	if pub.arrivals[2].Next == nil || pub.arrivals[2].Next.Mode != domain.ModeQueue {
		t.Errorf("last arrival should point at the queue: %+v", pub.arrivals[2])
	}
}

func TestSession_ConcurrentUpdates(t *testing.T) {
	svc := newNavService(usecases.PolicyFixed)
	target, _ := svc.ResolveTarget(context.Background(), "Manzana", nil)
	s := usecases.NewSession("s1", svc, target)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.UpdateLocation(ctx, farAway)
		}()
		go func(i int) {
			defer wg.Done()
			_, _ = s.UpdateOrientation(ctx, domain.OrientationReading{Alpha: f(float64(i)), Beta: f(90), Gamma: f(0)})
		}(i)
	}
	wg.Wait()

	if s.Last() == nil {
		t.Fatal("expected a state after concurrent updates")
	}
}

func TestSessionHub_RoutesReadings(t *testing.T) {
	svc := newNavService(usecases.PolicyFixed)
	pub := &mockPublisher{}
	hub := usecases.NewSessionHub(svc, pub, false, "Manzana")
	ctx := context.Background()

	if err := hub.HandleLocation(ctx, "dev-1", farAway); err != nil {
		t.Fatal(err)
	}
	if err := hub.HandleOrientation(ctx, "dev-1", domain.OrientationReading{Beta: f(1)}); err != nil {
		t.Fatalf("incomplete readings should be dropped silently, got %v", err)
	}
	if err := hub.HandleOrientation(ctx, "dev-1", upright); err != nil {
		t.Fatal(err)
	}
	if hub.Len() != 1 {
		t.Errorf("expected 1 session, got %d", hub.Len())
	}
	if len(pub.states) != 1 {
		t.Errorf("expected 1 published state, got %d", len(pub.states))
	}

	if _, err := hub.Open(ctx, "dev-2", "queue"); err != nil {
		t.Fatal(err)
	}
	hub.Close("dev-1")
	if hub.Len() != 1 {
		t.Errorf("expected 1 session after close, got %d", hub.Len())
	}
}

func TestSessionHub_UnknownDefault(t *testing.T) {
	hub := usecases.NewSessionHub(newNavService(usecases.PolicyFixed), nil, false, "Nope")
	err := hub.HandleLocation(context.Background(), "dev-1", farAway)
	if !errors.Is(err, domain.ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
}

func TestSessionHub_Retarget(t *testing.T) {
	svc := newNavService(usecases.PolicyFixed)
	hub := usecases.NewSessionHub(svc, nil, false, "CocaCola")
	ctx := context.Background()

	queue, err := svc.ResolveTarget(ctx, "queue", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := hub.Retarget(ctx, "dev-1", queue); err != nil {
		t.Fatal(err)
	}
	s, err := hub.Get(ctx, "dev-1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Target().Mode != domain.ModeQueue {
		t.Errorf("expected queue-mode after retarget, got %+v", s.Target())
	}
}

func TestSessionHub_Prune(t *testing.T) {
	hub := usecases.NewSessionHub(newNavService(usecases.PolicyFixed), nil, false, "CocaCola")
	ctx := context.Background()

	if _, err := hub.Open(ctx, "stale", "Pepsi"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := hub.HandleLocation(ctx, "fresh", farAway); err != nil {
		t.Fatal(err)
	}

	if n := hub.Prune(10 * time.Millisecond); n != 1 {
		t.Errorf("expected 1 pruned session, got %d", n)
	}
	if hub.Len() != 1 {
		t.Errorf("expected the fresh session to survive, got %d sessions", hub.Len())
	}
}

// slowCatalog delays destination lookups so concurrent first readings for a
// new session overlap while its target is being resolved.
type slowCatalog struct {
	*mockCatalogRepo
	delay time.Duration
}

func (c slowCatalog) ListDestinations(ctx context.Context) ([]domain.Destination, error) {
	time.Sleep(c.delay)
	return testDestinations, nil
}

func TestSessionHub_ConcurrentFirstReadings(t *testing.T) {
	repo := slowCatalog{mockCatalogRepo: fixtureRepo(), delay: 5 * time.Millisecond}
	catalog := usecases.NewCatalogService(repo, nil)
	svc := usecases.NewNavigationService(navigation.Default(), catalog, usecases.NewQueueService(catalog, usecases.PolicyFixed, 0))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		hub := usecases.NewSessionHub(svc, nil, false, "Manzana")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := hub.HandleLocation(ctx, "dev", farAway); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := hub.HandleOrientation(ctx, "dev", upright); err != nil {
				t.Error(err)
			}
		}()
		wg.Wait()

		if hub.Len() != 1 {
			t.Fatalf("expected one session, got %d", hub.Len())
		}
		s, err := hub.Get(ctx, "dev")
		if err != nil {
			t.Fatal(err)
		}
		if s.Location() == nil || s.Last() == nil {
			t.Fatalf("run %d: first location and orientation must merge into one state", i)
		}
	}
}

func TestSessionHub_OpenReplaces(t *testing.T) {
	hub := usecases.NewSessionHub(newNavService(usecases.PolicyFixed), nil, false, "CocaCola")
	ctx := context.Background()

	first, err := hub.Get(ctx, "dev")
	if err != nil {
		t.Fatal(err)
	}
	second, err := hub.Open(ctx, "dev", "Pepsi")
	if err != nil {
		t.Fatal(err)
	}
	if first == second || second.Target().Name != "Pepsi" {
		t.Errorf("explicit Open should replace the session, got %+v", second.Target())
	}
	if hub.Len() != 1 {
		t.Errorf("expected 1 session, got %d", hub.Len())
	}
}

// blockingPublisher holds PublishState until release is closed.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingPublisher) PublishState(ctx context.Context, sessionID string, st *domain.NavigationState) error {
	p.once.Do(func() { close(p.entered) })
	<-p.release
	return nil
}

func (p *blockingPublisher) PublishArrival(ctx context.Context, e *domain.ArrivalEvent) error {
	return nil
}

func TestSessionHub_SlowPublishDoesNotBlockHub(t *testing.T) {
	pub := &blockingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
	hub := usecases.NewSessionHub(newNavService(usecases.PolicyFixed), pub, false, "Manzana")
	ctx := context.Background()

	if err := hub.HandleLocation(ctx, "dev", farAway); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- hub.HandleOrientation(ctx, "dev", upright) }()
	<-pub.entered

	pruned := make(chan int, 1)
	go func() { pruned <- hub.Prune(time.Hour) }()
	select {
	case n := <-pruned:
		if n != 0 {
			t.Errorf("expected nothing pruned, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatal("Prune blocked behind a publish in flight")
	}

	s, err := hub.Get(ctx, "dev")
	if err != nil {
		t.Fatal(err)
	}
	if s.Last() == nil {
		t.Error("state should be readable while it is being published")
	}

	close(pub.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestSessionHub_PrunedSessionRejectsUpdates(t *testing.T) {
	hub := usecases.NewSessionHub(newNavService(usecases.PolicyFixed), nil, false, "Manzana")
	ctx := context.Background()

	held, err := hub.Get(ctx, "dev")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if n := hub.Prune(10 * time.Millisecond); n != 1 {
		t.Fatalf("expected 1 pruned session, got %d", n)
	}

	if _, err := held.UpdateLocation(ctx, farAway); err == nil {
		t.Error("a pruned session must reject updates")
	}
	if held.Location() != nil {
		t.Error("rejected update must not be applied")
	}

	if err := hub.HandleLocation(ctx, "dev", farAway); err != nil {
		t.Fatal(err)
	}
	fresh, err := hub.Get(ctx, "dev")
	if err != nil {
		t.Fatal(err)
	}
	if fresh == held || fresh.Location() == nil {
		t.Error("reading should land on a fresh session")
	}
}
