package navigation_test

import (
	"math"
	"testing"
	"time"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/navigation"
)

func TestObjectScale_MonotonicAndBounded(t *testing.T) {
	e := navigation.Default()
	p := e.Params()

	prev := math.Inf(1)
	for d := 0.0; d <= 5000; d += 0.25 {
		s := e.ObjectScale(d)
		if s > prev {
			t.Fatalf("scale increased at %.2fm: %f > %f", d, s, prev)
		}
		if s < p.MinScale || s > p.MaxScale {
			t.Fatalf("scale %f at %.2fm outside [%f, %f]", s, d, p.MinScale, p.MaxScale)
		}
		prev = s
	}
}

func TestObjectScale_Degenerate(t *testing.T) {
	e := navigation.Default()
	p := e.Params()

	if got := e.ObjectScale(0); got != p.MaxScale {
		t.Errorf("expected max scale at 0m, got %f", got)
	}
	if got := e.ObjectScale(-3); got != p.MaxScale {
		t.Errorf("expected max scale for negative distance, got %f", got)
	}
	if got := e.ObjectScale(math.NaN()); got != p.MinScale {
		t.Errorf("expected min scale for NaN, got %f", got)
	}
	if got := e.ObjectScale(1e9); got != p.MinScale {
		t.Errorf("expected min scale far away, got %f", got)
	}
}

func TestObjectScale_InverseFalloff(t *testing.T) {
	e := navigation.Default()
	// RefDistance 2m, MaxScale 1: 4m halves the scale.
	if got := e.ObjectScale(4); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("expected 0.5 at 4m, got %f", got)
	}
}

func TestIsObjectVisible(t *testing.T) {
	e := navigation.Default()

	tests := []struct {
		name             string
		bearing, heading float64
		want             bool
	}{
		{"straight ahead", 120, 120, true},
		{"wraparound", 359, 1, true},
		{"wraparound reverse", 1, 359, true},
		{"edge of fov", 30, 0, true},
		{"just outside fov", 30.5, 0, false},
		{"behind", 0, 180, false},
		{"left side", 270, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.IsObjectVisible(tt.bearing, tt.heading, 90); got != tt.want {
				t.Errorf("IsObjectVisible(%v, %v) = %v, want %v", tt.bearing, tt.heading, got, tt.want)
			}
		})
	}
}

func TestIsObjectVisible_ZeroDifferenceAlwaysVisible(t *testing.T) {
	e := navigation.Default()
	for h := 0.0; h < 360; h += 7.5 {
		for _, beta := range []float64{-180, -90, 0, 45, 90, 180} {
			if !e.IsObjectVisible(h, h, beta) {
				t.Fatalf("expected visible for heading=bearing=%v beta=%v", h, beta)
			}
		}
	}
}

func TestIsObjectVisible_PitchGate(t *testing.T) {
	p := navigation.DefaultParams
	p.PitchGate = true
	e, err := navigation.New(p)
	if err != nil {
		t.Fatal(err)
	}

	if !e.IsObjectVisible(10, 10, 90) {
		t.Error("expected visible when upright")
	}
	if e.IsObjectVisible(10, 10, 5) {
		t.Error("expected hidden when pointed at the ground")
	}
	if e.IsObjectVisible(10, 10, 170) {
		t.Error("expected hidden when pointed at the sky")
	}
}

func TestObjectPosition(t *testing.T) {
	e := navigation.Default()

	centre := e.ObjectPosition(90, 0)
	if centre.X != 0 || centre.Y != 0 {
		t.Errorf("expected centre for upright device, got %+v", centre)
	}

	down := e.ObjectPosition(80, 0)
	if down.Y != -100 {
		t.Errorf("expected marker 100px up when tilted 10 degrees down, got %+v", down)
	}

	right := e.ObjectPosition(90, 5)
	if right.X != -50 {
		t.Errorf("expected marker 50px left when rolled right, got %+v", right)
	}

	far := e.ObjectPosition(-180, 90)
	if far.X != -180 || far.Y != -320 {
		t.Errorf("expected clamp to viewport, got %+v", far)
	}
}

func TestObjectPosition_Continuous(t *testing.T) {
	e := navigation.Default()
	prev := e.ObjectPosition(60, -10)
	for beta := 60.0; beta <= 120; beta += 0.1 {
		cur := e.ObjectPosition(beta, -10)
		if math.Abs(cur.Y-prev.Y) > 1.0+1e-9 {
			t.Fatalf("jump at beta=%f: %f -> %f", beta, prev.Y, cur.Y)
		}
		prev = cur
	}
}

func TestETAMinutes(t *testing.T) {
	e := navigation.Default()
	tests := []struct {
		d    float64
		want int
	}{{0, 0}, {1, 1}, {100, 1}, {100.1, 2}, {250, 3}}
	for _, tt := range tests {
		if got := e.ETAMinutes(tt.d); got != tt.want {
			t.Errorf("ETAMinutes(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestArrived_StrictRadius(t *testing.T) {
	e := navigation.Default()
	tests := []struct {
		d    float64
		want bool
	}{{0, true}, {1.99, true}, {2, false}, {2.5, false}, {math.NaN(), false}}
	for _, tt := range tests {
		if got := e.Arrived(tt.d); got != tt.want {
			t.Errorf("Arrived(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}

	p := navigation.DefaultParams
	p.ArrivalRadius = 0
	never, err := navigation.New(p)
	if err != nil {
		t.Fatal(err)
	}
	if never.Arrived(0) {
		t.Error("a zero radius must never arrive")
	}
}

func TestArrowRotation(t *testing.T) {
	e := navigation.Default()
	if got := e.ArrowRotation(10, 350); got != -20 {
		t.Errorf("expected -20, got %f", got)
	}
	if got := e.ArrowRotation(90, 90); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestCompute_NearbyDestination(t *testing.T) {
	e := navigation.Default()
	origin := domain.GeoPoint{Lat: 25.6487015, Lon: -100.2898314}
	target := domain.DestinationTarget(1, domain.Destination{
		Name:     "Pepsi",
		Location: domain.GeoPoint{Lat: 25.6487135, Lon: -100.2898274},
	})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	st := e.Compute(origin, domain.DeviceOrientation{Alpha: 20, Beta: 90, Gamma: 0}, target, now)

	if st.DistanceMeters <= 0 || st.DistanceMeters > 5 {
		t.Errorf("expected a few meters, got %f", st.DistanceMeters)
	}
	if st.Bearing <= 0 || st.Bearing >= 90 {
		t.Errorf("expected north-east bearing, got %f", st.Bearing)
	}
	if !st.Visible {
		t.Error("expected target visible when facing it")
	}
	if !st.Arrived {
		t.Error("expected arrived within 2m")
	}
	if st.ETAMinutes != 1 {
		t.Errorf("expected 1 minute ETA, got %d", st.ETAMinutes)
	}
	if !st.ComputedAt.Equal(now) {
		t.Errorf("expected computed_at %v, got %v", now, st.ComputedAt)
	}
}

func TestCompute_IdenticalPoints(t *testing.T) {
	e := navigation.Default()
	p := domain.GeoPoint{Lat: 25.6487015, Lon: -100.2898314}
	st := e.Compute(p, domain.DeviceOrientation{Alpha: 0, Beta: 90}, domain.DestinationTarget(0, domain.Destination{Name: "CocaCola", Location: p}), time.Now())

	if st.DistanceMeters != 0 {
		t.Errorf("expected 0 distance, got %f", st.DistanceMeters)
	}
	if st.Bearing != 0 || math.IsNaN(st.Bearing) {
		t.Errorf("expected bearing 0, got %f", st.Bearing)
	}
	if st.Scale != e.Params().MaxScale {
		t.Errorf("expected max scale, got %f", st.Scale)
	}
}

func TestCompute_TargetBehind(t *testing.T) {
	e := navigation.Default()
	origin := domain.GeoPoint{Lat: 0, Lon: 0}
	target := domain.DestinationTarget(0, domain.Destination{Name: "north", Location: domain.GeoPoint{Lat: 0.01, Lon: 0}})

	st := e.Compute(origin, domain.DeviceOrientation{Alpha: 180, Beta: 90}, target, time.Now())
	if st.Visible {
		t.Error("expected target behind to be hidden")
	}
}

func TestCompute_OutOfRangeInputNormalized(t *testing.T) {
	e := navigation.Default()
	st := e.Compute(domain.GeoPoint{Lat: 95, Lon: 190}, domain.DeviceOrientation{}, domain.QueueTarget(domain.QueuePoint{ID: 1}), time.Now())
	if math.IsNaN(st.DistanceMeters) || math.IsNaN(st.Bearing) {
		t.Errorf("expected finite values, got %+v", st)
	}
}

func TestNew_InvalidParams(t *testing.T) {
	p := navigation.DefaultParams
	p.MinScale = 2
	p.MaxScale = 1
	p.HalfFOV = 0
	if _, err := navigation.New(p); err == nil {
		t.Error("expected validation error")
	}
}

func TestPackageFuncs(t *testing.T) {
	if navigation.ObjectScale(0) != navigation.DefaultParams.MaxScale {
		t.Error("expected default max scale")
	}
	if navigation.IsObjectVisible(0, 180, 90) {
		t.Error("expected hidden target behind the device")
	}
	if d := navigation.CalculateDistance(1, 1, 1, 1); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
	if b := navigation.CalculateBearing(0, 0, 0, 1); math.Abs(b-90) > 1e-9 {
		t.Errorf("expected 90, got %f", b)
	}
	if pos := navigation.ObjectPosition(90, 0); pos != (domain.ScreenOffset{}) {
		t.Errorf("expected centre, got %+v", pos)
	}
}
