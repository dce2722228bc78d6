package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"carpool/internal/domain"
)

const (
	rideOriginsKey      = "rides:origins"
	rideDestinationsKey = "rides:destinations"
)

// RideDistance pairs a ride ID with its distance from a query point.
type RideDistance struct {
	RideID    string
	DistanceM float64
}

// GeoStore indexes ride origins and destinations in Redis GEO sets.
type GeoStore struct {
	client *redis.Client
}

// NewGeoStore creates a new GeoStore.
func NewGeoStore(client *redis.Client) *GeoStore {
	return &GeoStore{client: client}
}

// IndexRide stores the ride's origin and destination points using GEOADD.
// Re-indexing the same ride overwrites the existing entries, so the call is
// idempotent.
func (s *GeoStore) IndexRide(ctx context.Context, rideID string, origin, destination domain.GeoPoint) error {
	if err := s.client.GeoAdd(ctx, rideOriginsKey, &redis.GeoLocation{
		Name:      rideID,
		Latitude:  origin.Lat,
		Longitude: origin.Lng,
	}).Err(); err != nil {
		return err
	}

	return s.client.GeoAdd(ctx, rideDestinationsKey, &redis.GeoLocation{
		Name:      rideID,
		Latitude:  destination.Lat,
		Longitude: destination.Lng,
	}).Err()
}

// RemoveRide removes the ride's points from both geo sets.
func (s *GeoStore) RemoveRide(ctx context.Context, rideID string) error {
	if err := s.client.ZRem(ctx, rideOriginsKey, rideID).Err(); err != nil {
		return err
	}
	return s.client.ZRem(ctx, rideDestinationsKey, rideID).Err()
}

// NearbyOrigins returns rides whose origin lies within radiusM meters of the
// center, ascending by distance.
func (s *GeoStore) NearbyOrigins(ctx context.Context, center domain.GeoPoint, radiusM float64) ([]RideDistance, error) {
	return s.nearby(ctx, rideOriginsKey, center, radiusM)
}

// NearbyDestinations returns rides whose destination lies within radiusM
// meters of the center, ascending by distance.
func (s *GeoStore) NearbyDestinations(ctx context.Context, center domain.GeoPoint, radiusM float64) ([]RideDistance, error) {
	return s.nearby(ctx, rideDestinationsKey, center, radiusM)
}

func (s *GeoStore) nearby(ctx context.Context, key string, center domain.GeoPoint, radiusM float64) ([]RideDistance, error) {
	// Redis rejects a zero radius; a tiny one still matches exact points.
	if radiusM <= 0 {
		radiusM = 1
	}

	results, err := s.client.GeoRadius(ctx, key, center.Lng, center.Lat, &redis.GeoRadiusQuery{
		Radius:   radiusM,
		Unit:     "m",
		WithDist: true,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	out := make([]RideDistance, 0, len(results))
	for _, r := range results {
		out = append(out, RideDistance{RideID: r.Name, DistanceM: r.Dist})
	}
	return out, nil
}
