package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/products-api/internal/core/domain"
)

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "base URL of a running server")
	total := flag.Int("n", 20, "number of concurrent creates")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	category := "stress-" + uuid.NewString()[:8]

	// Spawn concurrent creates
	var (
		successCount atomic.Int32
		failCount    atomic.Int32
		wg           sync.WaitGroup
	)
	start := time.Now()

	for i := 0; i < *total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			in := domain.NewProductInput{
				Name:     fmt.Sprintf("stress item %d", n),
				Category: category,
				Quantity: n,
				Price:    float64(n) + 0.99,
			}
			var created domain.Product
			if err := call(ctx, client, http.MethodPost, *baseURL+"/api/products", in, http.StatusCreated, &created); err != nil {
				fmt.Fprintf(os.Stderr, "create %d: %v\n", n, err)
				failCount.Add(1)
				return
			}
			successCount.Add(1)
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Verify listing
	var listed []domain.Product
	byCategory := *baseURL + "/api/products/category/" + url.PathEscape(category)
	if err := call(ctx, client, http.MethodGet, byCategory, nil, http.StatusOK, &listed); err != nil {
		fmt.Printf("FAIL: list category: %v\n", err)
		os.Exit(1)
	}
	ordered := true
	for i := 1; i < len(listed); i++ {
		if listed[i].UpdatedAt.After(listed[i-1].UpdatedAt) {
			ordered = false
		}
	}

	// Clean up
	var deleteFails int
	for _, p := range listed {
		target := *baseURL + "/api/products/" + url.PathEscape(p.ID) + "?category=" + url.QueryEscape(p.Category)
		if err := call(ctx, client, http.MethodDelete, target, nil, http.StatusOK, nil); err != nil {
			fmt.Fprintf(os.Stderr, "delete %s: %v\n", p.ID, err)
			deleteFails++
		}
	}
	var remaining []domain.Product
	if err := call(ctx, client, http.MethodGet, byCategory, nil, http.StatusOK, &remaining); err != nil {
		fmt.Printf("FAIL: list category after cleanup: %v\n", err)
		os.Exit(1)
	}

	// Results
	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Category:         %s\n", category)
	fmt.Printf("Total Requests:   %d\n", *total)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	passed := true
	check := func(ok bool, pass, failf string, args ...any) {
		if ok {
			fmt.Println("PASS: " + pass)
			return
		}
		passed = false
		fmt.Printf("FAIL: "+failf+"\n", args...)
	}

	check(int(success) == *total, fmt.Sprintf("all %d creates succeeded", *total),
		"expected %d creates, got %d", *total, success)
	check(len(listed) == *total, "category listing holds every created product",
		"expected %d listed, got %d", *total, len(listed))
	check(ordered, "listing is newest first", "listing is not ordered by updatedAt desc")
	check(deleteFails == 0 && len(remaining) == 0, "category empty after cleanup",
		"%d deletes failed, %d products remain", deleteFails, len(remaining))

	if !passed {
		os.Exit(1)
	}
}

// call sends body as JSON and decodes the response into out when the status
// matches want.
func call(ctx context.Context, client *http.Client, method, target string, body any, want int, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var e struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("status %d: %s: %s", resp.StatusCode, e.Error, e.Message)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
