package solana

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// EndpointHealth is the result of a getHealth call against one RPC node.
type EndpointHealth struct {
	URL       string `json:"url"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

func checkEndpoint(ctx context.Context, url string, timeout time.Duration) (res EndpointHealth) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res.URL = url
	defer func() { res.LatencyMs = time.Since(start).Milliseconds() }()

	out, err := rpc.New(url).GetHealth(ctx)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if out != rpc.HealthOk {
		res.Error = "unhealthy: " + out
		return res
	}

	res.OK = true
	return res
}

// CheckEndpoints calls getHealth on every endpoint concurrently and returns
// the results in input order.
func CheckEndpoints(ctx context.Context, urls []string, timeout time.Duration) []EndpointHealth {
	results := make([]EndpointHealth, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			results[i] = checkEndpoint(ctx, url, timeout)
		}(i, url)
	}
	wg.Wait()

	return results
}
