package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Holds serializes inventory mutations per ticket type and tracks live
// reservation holds. Lock keys are SetNX with a short TTL so a crashed
// process can never wedge a ticket type.
type Holds struct {
	Client  *redis.Client
	Logger  *log.Logger
	LockTTL time.Duration
}

func NewHolds(client *redis.Client) *Holds {
	return &Holds{
		Client:  client,
		Logger:  log.Default(),
		LockTTL: 5 * time.Second,
	}
}

func typeLockKey(ticketTypeID string) string {
	return "inv_lock:" + ticketTypeID
}

func holdKey(orderID string) string {
	return "resv:" + orderID
}

// AcquireTypeLock takes the per-type mutex. Returns false when another
// reservation currently holds it.
func (h *Holds) AcquireTypeLock(ticketTypeID, token string) (bool, error) {
	ttl := h.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	ok, err := h.Client.SetNX(context.Background(), typeLockKey(ticketTypeID), token, ttl).Result()
	return ok, err
}

// ReleaseTypeLock releases the mutex only if we still own it.
func (h *Holds) ReleaseTypeLock(ticketTypeID, token string) error {
	ctx := context.Background()
	key := typeLockKey(ticketTypeID)

	val, err := h.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // lock already expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := h.Client.Del(ctx, key).Result()
		return err
	}
	h.Logger.Println(fmt.Sprintf("INVENTORY: lock for type %s stolen by another holder", ticketTypeID))
	return nil
}

// PlaceHold records a live reservation with the reservation TTL.
func (h *Holds) PlaceHold(orderID string, ttl time.Duration) error {
	return h.Client.Set(context.Background(), holdKey(orderID), "reserved", ttl).Err()
}

// HoldExists reports whether a reservation is still inside its TTL window.
func (h *Holds) HoldExists(orderID string) (bool, error) {
	_, err := h.Client.Get(context.Background(), holdKey(orderID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ClearHold removes the reservation marker on confirmation or expiry.
func (h *Holds) ClearHold(orderID string) error {
	_, err := h.Client.Del(context.Background(), holdKey(orderID)).Result()
	if err == redis.Nil {
		return nil
	}
	return err
}
