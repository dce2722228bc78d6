package redis

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// GeoStoreInterface defines the interface for the ride geo index.
type GeoStoreInterface interface {
	IndexRide(ctx context.Context, rideID string, origin, destination domain.GeoPoint) error
	RemoveRide(ctx context.Context, rideID string) error
	NearbyOrigins(ctx context.Context, center domain.GeoPoint, radiusM float64) ([]RideDistance, error)
	NearbyDestinations(ctx context.Context, center domain.GeoPoint, radiusM float64) ([]RideDistance, error)
}

// LockStoreInterface defines the interface for per-ride locking.
type LockStoreInterface interface {
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error)
	ReleaseRideLock(ctx context.Context, rideID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ GeoStoreInterface  = (*GeoStore)(nil)
	_ LockStoreInterface = (*LockStore)(nil)
)
