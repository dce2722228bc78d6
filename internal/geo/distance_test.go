package geo

import (
	"math"
	"testing"

	"carpool/internal/domain"
)

func TestDistanceM_ZeroForIdenticalPoints(t *testing.T) {
	p := domain.GeoPoint{Lat: 48.8566, Lng: 2.3522}

	if d := DistanceM(p, p); d != 0 {
		t.Errorf("expected zero distance, got %f", d)
	}
}

func TestDistanceM_Symmetric(t *testing.T) {
	a := domain.GeoPoint{Lat: 48.8566, Lng: 2.3522} // Paris
	b := domain.GeoPoint{Lat: 45.7640, Lng: 4.8357} // Lyon

	ab := DistanceM(a, b)
	ba := DistanceM(b, a)

	if math.Abs(ab-ba) > 1e-6 {
		t.Errorf("expected symmetric distance, got %f vs %f", ab, ba)
	}
}

func TestDistanceM_KnownDistance(t *testing.T) {
	a := domain.GeoPoint{Lat: 48.8566, Lng: 2.3522} // Paris
	b := domain.GeoPoint{Lat: 45.7640, Lng: 4.8357} // Lyon

	// Great-circle distance Paris-Lyon is roughly 392 km.
	d := DistanceM(a, b)
	if d < 380000 || d > 405000 {
		t.Errorf("unexpected Paris-Lyon distance: %f m", d)
	}
}

func TestWithinTolerance(t *testing.T) {
	a := domain.GeoPoint{Lat: 48.8566, Lng: 2.3522}
	b := domain.GeoPoint{Lat: 48.8567, Lng: 2.3523} // ~13 m away

	if !WithinTolerance(a, b, 100) {
		t.Error("expected points to be within 100 m")
	}
	if WithinTolerance(a, b, 1) {
		t.Error("expected points to be farther than 1 m apart")
	}
}

func TestValidPoint(t *testing.T) {
	if !ValidPoint(domain.GeoPoint{Lat: -90, Lng: 180}) {
		t.Error("expected boundary point to be valid")
	}
	if ValidPoint(domain.GeoPoint{Lat: 91, Lng: 0}) {
		t.Error("expected latitude 91 to be invalid")
	}
	if ValidPoint(domain.GeoPoint{Lat: 0, Lng: -181}) {
		t.Error("expected longitude -181 to be invalid")
	}
}
