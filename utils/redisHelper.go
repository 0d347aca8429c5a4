package utils

import (
	"context"
	"reflect"

	"github.com/mmdatafocus/retail_ledger/config"
)

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

func redisKey[T any](key string) string {
	return GetTypeName[T]() + ":" + key
}

/* Redis */

// store instance under Type:key
func StoreRedis[T any](ctx context.Context, obj *T, key string) error {
	return config.SetRedisObject(ctx, redisKey[T](key), obj, config.CacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](ctx context.Context, key string) (*T, error) {
	var result T
	exists, err := config.GetRedisObject(ctx, redisKey[T](key), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &result, nil
}

// remove instances, Type:$key
func RemoveRedisItem[T any](ctx context.Context, keys ...string) error {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, redisKey[T](k))
	}
	return config.RemoveRedisKey(ctx, full...)
}
