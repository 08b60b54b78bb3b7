package utils

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/bsm/redislock"

	"bitbucket.org/mmdatafocus/billing_portal/config"
)

var mutex sync.Mutex

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// GetSequence returns the next transaction sequence number for model T within a
// business. The counter lives in Redis; a missing key means Redis restarted
// cold and the counter must be reseeded from MAX(sequence_no) in the database
// before anything is handed out.
func GetSequence[T any](ctx context.Context, businessId string) (int64, error) {
	mutex.Lock()
	defer mutex.Unlock()

	cacheKey := businessId + "-" + strings.ToLower(GetTypeName[T]()) + "_seq"

	exists, err := config.RedisKeyExists(ctx, cacheKey)
	if err != nil {
		return 0, err
	}
	if !exists {
		if err := reseedSequence[T](ctx, businessId, cacheKey); err != nil {
			return 0, err
		}
	}
	return config.GetRedisCounter(ctx, cacheKey)
}

// reseedSequence seeds a cold counter to the database maximum so the next
// increment hands out max+1. The shared redis lock fences the reseed across
// instances; losers of the lock race wait and then find the key seeded.
func reseedSequence[T any](ctx context.Context, businessId string, cacheKey string) error {
	var model T

	if locker := config.GetRedisLock(); locker != nil {
		opts := &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 100),
		}
		lock, err := locker.Obtain(ctx, cacheKey+"-reseed", 10*time.Second, opts)
		if err != nil {
			return err
		}
		defer lock.Release(ctx)

		exists, err := config.RedisKeyExists(ctx, cacheKey)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}

	var dbSeq *int64
	if err := config.GetDB().WithContext(ctx).Model(&model).Select("max(sequence_no)").
		Where("business_id = ?", businessId).
		Scan(&dbSeq).Error; err != nil {
		return err
	}
	var seed int64
	if dbSeq != nil {
		seed = *dbSeq
	}
	return config.SetRedisCounter(ctx, cacheKey, seed)
}
