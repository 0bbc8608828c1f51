package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const (
	numWorkers   = 50
	testDuration = 10 * time.Second
	numCards     = 200
	numPastDays  = 30
)

var baseURL string

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	flag.StringVar(&baseURL, "url", "http://127.0.0.1:5001", "server base URL")
	flag.Parse()

	fmt.Println("=== nfcattend Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Cards: %d\n\n", numWorkers, testDuration, numCards)

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: name the cards and record taps
	fmt.Println("\n--- Phase 1: Seeding (save-card-name, toggle) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.2 {
			return doSaveName(rng)
		}
		return doToggle(rng)
	})

	// Phase 2: reader traffic with the UI polling
	fmt.Println("\n--- Phase 2: Reader load (taps, polling, status) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.30:
			return doCardDetected(rng)
		case r < 0.40:
			return doCardRemoved()
		case r < 0.80:
			return doGet("GET /api/poll-status", "/api/poll-status")
		default:
			return doGet("GET /api/attendance-status", "/api/attendance-status")
		}
	})

	// Phase 3: read-heavy dashboards
	fmt.Println("\n--- Phase 3: Read-heavy load (10% toggle, 90% views) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doToggle(rng)
		case r < 0.50:
			return doGet("GET /api/person-profile", "/api/person-profile?uid="+cardUID(rng))
		case r < 0.70:
			return doGet("GET /api/attendance-status", "/api/attendance-status?date="+pastDate(rng))
		case r < 0.85:
			return doGet("GET /api/dates", "/api/dates")
		default:
			return doGet("GET /api/get-all-card-names", "/api/get-all-card-names")
		}
	})
}

func cardUID(rng *rand.Rand) string {
	return fmt.Sprintf("04%08X", rng.Intn(numCards))
}

func pastDate(rng *rand.Rand) string {
	return time.Now().AddDate(0, 0, -rng.Intn(numPastDays)).Format("2006-01-02")
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-28s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-28s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doPost(label, path string, body any) result {
	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+path, "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{label, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{label, resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doGet(label, path string) result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + path)
	lat := time.Since(start)
	if err != nil {
		return result{label, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{label, resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doToggle(rng *rand.Rand) result {
	body := map[string]string{"uid": cardUID(rng)}
	if rng.Float64() < 0.3 {
		body["date"] = pastDate(rng)
	}
	return doPost("POST /api/toggle", "/api/toggle", body)
}

func doSaveName(rng *rand.Rand) result {
	uid := cardUID(rng)
	return doPost("POST /api/save-card-name", "/api/save-card-name", map[string]string{
		"uid":  uid,
		"name": "Member " + uid[len(uid)-4:],
	})
}

func doCardDetected(rng *rand.Rand) result {
	return doPost("POST /api/card-detected", "/api/card-detected", map[string]string{"uid": cardUID(rng)})
}

func doCardRemoved() result {
	return doPost("POST /api/card-removed", "/api/card-removed", map[string]string{})
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
