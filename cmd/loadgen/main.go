// Command loadgen drives the API with synthetic customer journeys and
// reports request latency percentiles.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/dto"
	"github.com/BarkinBalci/attribution-service/internal/logger"
)

var (
	channels = []string{"organic_search", "paid_search", "social_media", "email", "direct", "referral"}
	// types mirrors the built-in category table so every synthetic touchpoint
	// lands in a real funnel category.
	types = config.DefaultAttribution().TouchpointTypes()
)

type stats struct {
	requests atomic.Int64
	errors   atomic.Int64

	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
}

func (s *stats) merge(h *hdrhistogram.Histogram) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histogram.Merge(h)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	concurrency := flag.Int("concurrency", 16, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "duration of the run")
	customers := flag.Int("customers", 1000, "size of the synthetic customer pool")
	conversionEvery := flag.Int("conversion-every", 8, "publish a conversion after this many touchpoints per worker, 0 disables")
	flag.Parse()

	log, err := logger.New("development", "loadgen")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	// Max latency of 10 seconds in microseconds, 3 significant figures
	st := &stats{histogram: hdrhistogram.New(1, 10_000_000, 3)}

	log.Info("Load generation starting",
		zap.String("url", *baseURL),
		zap.Int("concurrency", *concurrency),
		zap.Duration("duration", *duration))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < *concurrency; w++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)))
			h := hdrhistogram.New(1, 10_000_000, 3)
			defer st.merge(h)

			for n := 1; gctx.Err() == nil; n++ {
				customerID := fmt.Sprintf("load_user_%d", rng.Intn(*customers))

				path, body := "/touchpoints", any(randomTouchpoint(rng, customerID))
				if *conversionEvery > 0 && n%*conversionEvery == 0 {
					path, body = "/conversions", dto.PublishConversionRequest{
						ConversionID:    "conv_" + uuid.NewString(),
						CustomerID:      customerID,
						ConversionValue: float64(10 + rng.Intn(490)),
						ConversionDate:  time.Now().Unix(),
					}
				}

				opStart := time.Now()
				if err := post(gctx, client, *baseURL+path, body); err != nil {
					if gctx.Err() != nil {
						return nil
					}
					st.errors.Add(1)
					log.Debug("Request failed", zap.String("path", path), zap.Error(err))
					continue
				}
				st.requests.Add(1)
				_ = h.RecordValue(time.Since(opStart).Microseconds())
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	micro := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	log.Info("Load generation finished",
		zap.Int64("requests", st.requests.Load()),
		zap.Int64("errors", st.errors.Load()),
		zap.Float64("throughput_rps", float64(st.requests.Load())/elapsed.Seconds()),
		zap.Duration("mean", time.Duration(st.histogram.Mean())*time.Microsecond),
		zap.Duration("p50", micro(st.histogram.ValueAtQuantile(50))),
		zap.Duration("p95", micro(st.histogram.ValueAtQuantile(95))),
		zap.Duration("p99", micro(st.histogram.ValueAtQuantile(99))),
		zap.Duration("max", micro(st.histogram.Max())))
}

func randomTouchpoint(rng *rand.Rand, customerID string) dto.IngestTouchpointRequest {
	interaction := "passive"
	if rng.Intn(2) == 0 {
		interaction = "active"
	}
	return dto.IngestTouchpointRequest{
		EventID:    uuid.NewString(),
		CustomerID: customerID,
		Type:       types[rng.Intn(len(types))],
		Channel:    channels[rng.Intn(len(channels))],
		Timestamp:  time.Now().Unix(),
		Engagement: dto.EngagementRequest{
			TimeOnPage:      float64(rng.Intn(600)),
			ScrollDepth:     float64(rng.Intn(101)),
			ClickCount:      rng.Intn(10),
			InteractionType: interaction,
		},
		LandingPage: "https://shop.example.com/?utm_source=loadgen&utm_medium=synthetic",
	}
}

func post(ctx context.Context, client *http.Client, url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s: status %d: %s", apiErr.Error, resp.StatusCode, apiErr.Message)
	}
	return nil
}
