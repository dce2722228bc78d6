package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles ride summary caching in Redis.
//
// Cached rides may carry a slightly stale seat count: search results tolerate
// staleness, and every booking transition re-validates against Postgres.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// RideCacheTTL is short because seat counts change with every booking.
const RideCacheTTL = 10 * time.Second

const rideCachePrefix = "cache:ride:"

// CachedRide represents a cached ride summary.
type CachedRide struct {
	ID                 string    `json:"id"`
	DriverID           string    `json:"driver_id"`
	OriginLat          float64   `json:"origin_lat"`
	OriginLng          float64   `json:"origin_lng"`
	OriginAddress      string    `json:"origin_address"`
	DestinationLat     float64   `json:"destination_lat"`
	DestinationLng     float64   `json:"destination_lng"`
	DestinationAddress string    `json:"destination_address"`
	DepartureTime      time.Time `json:"departure_time"`
	SeatsTotal         int       `json:"seats_total"`
	SeatsAvailable     int       `json:"seats_available"`
	Price              *float64  `json:"price,omitempty"`
	BookingMode        string    `json:"booking_mode"`
	Status             string    `json:"status"`
}

// GetRide retrieves a ride from cache. Returns (nil, nil) on a miss.
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*CachedRide, error) {
	data, err := s.client.Get(ctx, rideCachePrefix+rideID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var ride CachedRide
	if err := json.Unmarshal(data, &ride); err != nil {
		return nil, err
	}
	return &ride, nil
}

// GetRidesBatch retrieves several rides from cache in one round trip and
// returns the hits plus the IDs that missed.
func (s *CacheStore) GetRidesBatch(ctx context.Context, rideIDs []string) (map[string]*CachedRide, []string, error) {
	if len(rideIDs) == 0 {
		return map[string]*CachedRide{}, nil, nil
	}

	keys := make([]string, len(rideIDs))
	for i, id := range rideIDs {
		keys[i] = rideCachePrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, rideIDs, err
	}

	hits := make(map[string]*CachedRide, len(rideIDs))
	var missing []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, rideIDs[i])
			continue
		}
		var ride CachedRide
		if err := json.Unmarshal([]byte(raw), &ride); err != nil {
			missing = append(missing, rideIDs[i])
			continue
		}
		hits[rideIDs[i]] = &ride
	}

	return hits, missing, nil
}

// SetRide stores a ride summary in cache.
func (s *CacheStore) SetRide(ctx context.Context, ride *CachedRide) error {
	data, err := json.Marshal(ride)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rideCachePrefix+ride.ID, data, RideCacheTTL).Err()
}

// InvalidateRide removes a ride from cache.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	return s.client.Del(ctx, rideCachePrefix+rideID).Err()
}
