package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/adapter/storage"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/service"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/logging"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/port"
)

const (
	defaultDSN    = "root:root@tcp(localhost:3306)/marketplace?parseTime=true"
	totalRequests = 50
	listingPrice  = 25000
)

func main() {
	ctx := context.Background()

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = defaultDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(totalRequests)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	adapter := storage.NewMySQLAdapter(db)
	checkoutService := service.NewCheckoutService(adapter, nil, logging.Discard)

	// Seed one listing every buyer races for
	listingID := uuid.NewString()
	now := time.Now().UTC()
	err = adapter.WithinTransaction(ctx, func(ctx context.Context, store port.Store) error {
		return store.Listings().CreateListing(ctx, domain.Listing{
			ID:        listingID,
			SellerID:  "stress-seller",
			Title:     "stress-" + listingID[:8],
			Price:     listingPrice,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		log.Fatalf("failed to seed listing: %v", err)
	}

	var successCount atomic.Int32
	var conflictCount atomic.Int32
	var errorCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(buyer int) {
			defer wg.Done()

			_, err := checkoutService.BuyNow(ctx, fmt.Sprintf("stress-buyer-%d", buyer), listingID)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflictCount.Add(1)
			default:
				errorCount.Add(1)
				log.Printf("buyer %d: %v", buyer, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	conflicts := conflictCount.Load()
	failures := errorCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Listing:          %s\n", listingID)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Winners:          %d\n", success)
	fmt.Printf("Lost the sale:    %d\n", conflicts)
	fmt.Printf("Other errors:     %d\n", failures)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == 1 && conflicts == int32(totalRequests-1) {
		fmt.Println("PASS: exactly one buyer won the listing")
	} else {
		fmt.Printf("FAIL: expected 1 winner/%d conflicts, got %d/%d\n", totalRequests-1, success, conflicts)
	}

	var status string
	var purchases int
	if err := db.QueryRowContext(ctx, `SELECT status FROM listings WHERE id = ?`, listingID).Scan(&status); err != nil {
		log.Fatalf("failed to read listing: %v", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases WHERE listing_id = ?`, listingID).Scan(&purchases); err != nil {
		log.Fatalf("failed to count purchases: %v", err)
	}
	fmt.Printf("Final status: %s, purchase rows: %d\n", status, purchases)

	if status == string(domain.SaleStatusSold) && purchases == 1 {
		fmt.Println("PASS: listing sold once")
	} else {
		fmt.Println("FAIL: listing state and ledger disagree")
	}
}
