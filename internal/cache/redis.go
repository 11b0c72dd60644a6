package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"pos-backend/internal/models"
)

const (
	productKeyFmt = "product:%d"
	barcodeKeyFmt = "product:barcode:%s"

	productTTL = 10 * time.Minute
)

var client *redis.Client

// Init initializes the Redis connection. The cache degrades gracefully:
// a failed connection leaves the client nil and every lookup misses.
func Init() error {
	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis" // fallback to service name
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetProduct returns a cached product by id
func GetProduct(ctx context.Context, id int) (*models.Product, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, fmt.Sprintf(productKeyFmt, id)).Bytes()
	if err != nil {
		return nil, false
	}
	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// GetProductByBarcode returns a cached product by barcode
func GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, fmt.Sprintf(barcodeKeyFmt, barcode)).Bytes()
	if err != nil {
		return nil, false
	}
	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// SetProduct caches a product under both its id and barcode keys
func SetProduct(ctx context.Context, p *models.Product) {
	if client == nil || p == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	client.Set(ctx, fmt.Sprintf(productKeyFmt, p.ID), data, productTTL)
	if p.Barcode != "" {
		client.Set(ctx, fmt.Sprintf(barcodeKeyFmt, p.Barcode), data, productTTL)
	}
}

// InvalidateProduct drops a product from the cache (on update)
func InvalidateProduct(ctx context.Context, p *models.Product) {
	if client == nil || p == nil {
		return
	}
	client.Del(ctx, fmt.Sprintf(productKeyFmt, p.ID))
	if p.Barcode != "" {
		client.Del(ctx, fmt.Sprintf(barcodeKeyFmt, p.Barcode))
	}
}
