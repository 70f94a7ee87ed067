package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/acp-checkout/internal/adapter/payment"
	"github.com/rl1809/acp-checkout/internal/adapter/storage"
	"github.com/rl1809/acp-checkout/internal/catalog"
	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/core/service"
	"github.com/rl1809/acp-checkout/internal/port"
)

const (
	redisAddr     = "localhost:6379"
	totalRequests = 50
	lockTTL       = 10 * time.Second
	gatewayDelay  = 20 * time.Millisecond
)

// countingGateway approves every charge after a short delay and counts calls.
type countingGateway struct {
	inner port.PaymentGateway
	calls atomic.Int32
}

func (g *countingGateway) Confirm(ctx context.Context, req port.PaymentRequest) (port.PaymentConfirmation, error) {
	g.calls.Add(1)
	time.Sleep(gatewayDelay)
	return g.inner.Confirm(ctx, req)
}

func main() {
	ctx := context.Background()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Initialize adapter and service
	redisAdapter := storage.NewRedisAdapter(rdb, time.Hour, lockTTL)
	gateway := &countingGateway{inner: payment.NewSimulatedGateway()}
	products := catalog.Default()
	checkoutService := service.NewCheckoutService(redisAdapter, redisAdapter, products, products, gateway)

	session, err := checkoutService.Create(ctx, service.CreateRequest{
		Items: []domain.ItemRequest{{ID: "item_123", Quantity: 1}},
		FulfillmentAddress: &domain.Address{
			Name: "Stress Test", LineOne: "1 Load St", City: "San Francisco",
			State: "CA", Country: "US", PostalCode: "94105",
		},
	})
	if err != nil {
		log.Fatalf("failed to create checkout: %v", err)
	}
	defer redisAdapter.Delete(ctx, session.ID)

	// Counters
	var successCount atomic.Int32
	var rejectedCount atomic.Int32
	var otherCount atomic.Int32

	// Spawn concurrent completes against the same checkout
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := checkoutService.Complete(ctx, session.ID, service.CompleteRequest{
				PaymentData: &domain.PaymentData{Token: "tok_visa", Provider: "stripe"},
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, service.ErrCheckoutAlreadyCompleted):
				rejectedCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Completed:        %d\n", successCount.Load())
	fmt.Printf("Already Complete: %d\n", rejectedCount.Load())
	fmt.Printf("Other Errors:     %d\n", otherCount.Load())
	fmt.Printf("Gateway Calls:    %d\n", gateway.calls.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if successCount.Load() == 1 && rejectedCount.Load() == totalRequests-1 {
		fmt.Printf("PASS: Exactly 1 complete succeeded, %d rejected\n", totalRequests-1)
	} else {
		fmt.Printf("FAIL: Expected 1/%d, got %d/%d\n", totalRequests-1, successCount.Load(), rejectedCount.Load())
	}

	if gateway.calls.Load() == 1 {
		fmt.Println("PASS: Payment charged exactly once")
	} else {
		fmt.Printf("FAIL: Expected 1 gateway call, got %d\n", gateway.calls.Load())
	}

	// Verify final state in Redis
	stored, err := redisAdapter.Get(ctx, session.ID)
	if err != nil || stored == nil {
		fmt.Printf("FAIL: could not read checkout back: %v\n", err)
		return
	}
	if stored.Status == domain.CheckoutStatusCompleted {
		fmt.Println("PASS: Checkout stored as completed")
	} else {
		fmt.Printf("FAIL: Expected status completed, got %s\n", stored.Status)
	}
}
