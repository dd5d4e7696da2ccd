// cmd/drill/main.go
//
// drill hammers a running API with concurrent borrow/return traffic for a
// single item and then checks that the availability counter still balances.
// Point it at a disposable database: it creates its own item and member.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"pustaka/internal/catalog"
	"pustaka/internal/circulation"
	"pustaka/internal/clients"
	"pustaka/internal/member"
)

type counters struct {
	mu        sync.Mutex
	borrowed  int
	returned  int
	noCopies  int
	conflicts int
	errors    int
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "API base URL")
	copies := flag.Int("copies", 3, "total copies of the drill item")
	workers := flag.Int("workers", 10, "concurrent borrowers")
	rounds := flag.Int("rounds", 50, "borrow/return rounds per worker")
	flag.Parse()

	ctx := context.Background()
	c := clients.New(*baseURL)

	item, err := c.AddItem(ctx, catalog.NewItem{
		Title:       fmt.Sprintf("Drill %d", time.Now().Unix()),
		Author:      "drill",
		TotalCopies: *copies,
	})
	if err != nil {
		log.Fatalf("create drill item: %v", err)
	}

	m, err := c.AddMember(ctx, member.NewMember{Name: "drill", Group: "drill"})
	if err != nil {
		log.Fatalf("create drill member: %v", err)
	}

	log.Printf("drilling item %s: %d copies, %d workers, %d rounds each",
		item.ID, *copies, *workers, *rounds)

	var tally counters
	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < *rounds; r++ {
				loan, err := c.Borrow(ctx, circulation.BorrowRequest{ItemID: item.ID, MemberID: m.ID})
				if err != nil {
					tally.record(err)
					continue
				}
				tally.hit(&tally.borrowed)

				if _, err := c.Return(ctx, loan.ID); err != nil {
					tally.record(err)
					continue
				}
				tally.hit(&tally.returned)
			}
		}()
	}
	wg.Wait()

	log.Printf("done in %s: %d borrowed, %d returned, %d no-copies, %d conflicts, %d errors",
		time.Since(start).Round(time.Millisecond),
		tally.borrowed, tally.returned, tally.noCopies, tally.conflicts, tally.errors)

	// Every loan was returned, so the full stock must be back on the shelf.
	final, err := c.GetItem(ctx, item.ID)
	if err != nil {
		log.Fatalf("read back drill item: %v", err)
	}
	if final.AvailableCopies != final.TotalCopies {
		log.Fatalf("counter out of balance: %d of %d copies available",
			final.AvailableCopies, final.TotalCopies)
	}
	if tally.borrowed != tally.returned {
		log.Fatalf("loan ledger out of balance: %d borrows, %d returns", tally.borrowed, tally.returned)
	}
	log.Printf("counter balanced: %d of %d copies available", final.AvailableCopies, final.TotalCopies)
}

func (t *counters) hit(field *int) {
	t.mu.Lock()
	*field++
	t.mu.Unlock()
}

func (t *counters) record(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var apiErr *clients.APIError
	if !errors.As(err, &apiErr) {
		t.errors++
		return
	}
	switch apiErr.StatusCode {
	case http.StatusConflict:
		t.noCopies++
	case http.StatusServiceUnavailable:
		t.conflicts++
	default:
		t.errors++
	}
}
