package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	productID := flag.Uint("product", 1, "product id")

	// 超卖测试参数：N 个游客并发直购同一商品
	nBuyers := flag.Int("buyers", 200, "concurrent guest buyers")
	concurrency := flag.Int("c", 50, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}

	// 不超卖测试：并发游客直购，成功数不应超过初始库存。
	fmt.Printf("start oversell test: product=%d buyers=%d concurrency=%d\n",
		*productID, *nBuyers, *concurrency)
	results := runBuy(client, *baseURL, *productID, *nBuyers, *concurrency)
	printSummary("oversell", results)
}

func runBuy(client *http.Client, baseURL string, productID uint, n, concurrency int) []Result {
	results := make([]Result, n)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			body := map[string]any{
				"productId": productID,
				"quantity":  1,
				"shippingInfo": map[string]string{
					"name":    fmt.Sprintf("Load Tester %d", idx),
					"phone":   fmt.Sprintf("01%09d", idx),
					"address": "1 Test Road",
					"city":    "Dhaka",
					"state":   "Dhaka",
				},
			}
			b, _ := json.Marshal(body)

			resp, err := client.Post(baseURL+"/api/orders/direct", "application/json", bytes.NewReader(b))
			if err != nil {
				results[idx] = Result{Err: err}
				return
			}
			defer resp.Body.Close()
			data, _ := io.ReadAll(resp.Body)
			results[idx] = Result{Status: resp.StatusCode, Body: string(data)}
		}(i)
	}
	wg.Wait()
	return results
}

func printSummary(name string, results []Result) {
	byStatus := map[int]int{}
	errs := 0
	for _, r := range results {
		if r.Err != nil {
			errs++
			continue
		}
		byStatus[r.Status]++
	}
	fmt.Printf("[%s] total=%d errors=%d\n", name, len(results), errs)
	for status, n := range byStatus {
		fmt.Printf("  status %d: %d\n", status, n)
	}
	// 201 数量应等于测试前库存；超出即存在超卖。
	fmt.Printf("  created (201): %d\n", byStatus[http.StatusCreated])
}
