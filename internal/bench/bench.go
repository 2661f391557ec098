// Package bench measures DecryptToken/EncryptData/DecryptData throughput
// against synthetic, locally-generated tokens and data envelopes. Worker
// pool plus ticker load generation, with JSON baseline persistence and
// regression tracking against codec call latency.
package bench

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kenneth/uid2-client-go/uid2"
)

// Config controls one throughput run.
type Config struct {
	NumWorkers          int
	Duration            time.Duration
	QPS                 int // per worker; 0 means unthrottled
	BaselineFile        string
	RegressionThreshold float64
}

// Metrics holds one run's latency and throughput statistics, and is the
// unit persisted to a baseline file for regression tracking.
type Metrics struct {
	Timestamp       time.Time     `json:"timestamp"`
	Operation       string        `json:"operation"`
	Duration        time.Duration `json:"duration"`
	TotalOperations int64         `json:"total_operations"`
	SuccessfulOps   int64         `json:"successful_operations"`
	FailedOps       int64         `json:"failed_operations"`
	P50Latency      time.Duration `json:"p50_latency"`
	P95Latency      time.Duration `json:"p95_latency"`
	P99Latency      time.Duration `json:"p99_latency"`
	AvgLatency      time.Duration `json:"avg_latency"`
	MinLatency      time.Duration `json:"min_latency"`
	MaxLatency      time.Duration `json:"max_latency"`
	Throughput      float64       `json:"throughput_ops_per_sec"`
	ErrorRate       float64       `json:"error_rate"`
}

// RegressionResult compares a run against its baseline.
type RegressionResult struct {
	Operation             string
	Baseline              *Metrics
	Current               *Metrics
	LatencyRegression     float64
	ThroughputRegression  float64
	ErrorRateRegression   float64
	SignificantRegression bool
	Details               []string
}

// RunDecryptTokenBench repeatedly calls decryptor.DecryptToken against
// tokens (cycled round-robin across workers) for cfg.Duration.
func RunDecryptTokenBench(cfg Config, decryptor *uid2.Decryptor, tokens [][]byte, logger *logrus.Logger) (*Metrics, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("bench: no tokens to decrypt")
	}
	return run(cfg, "decrypt_token", logger, func(workerID int, opIndex int64) bool {
		token := tokens[opIndex%int64(len(tokens))]
		resp := decryptor.DecryptToken(token, time.Now())
		return resp.Status == uid2.Success
	})
}

// RunEncryptDataBench repeatedly calls decryptor.EncryptData against
// plaintext for siteID for cfg.Duration.
func RunEncryptDataBench(cfg Config, decryptor *uid2.Decryptor, siteID int32, plaintext []byte, logger *logrus.Logger) (*Metrics, error) {
	return run(cfg, "encrypt_data", logger, func(workerID int, opIndex int64) bool {
		resp, err := decryptor.EncryptData(uid2.EncryptDataRequest{
			Data:   plaintext,
			SiteID: &siteID,
			Now:    time.Now(),
		})
		return err == nil && resp.Status == uid2.Success
	})
}

// RunDecryptDataBench repeatedly calls decryptor.DecryptData against
// envelopes (cycled round-robin) for cfg.Duration.
func RunDecryptDataBench(cfg Config, decryptor *uid2.Decryptor, envelopes [][]byte, logger *logrus.Logger) (*Metrics, error) {
	if len(envelopes) == 0 {
		return nil, fmt.Errorf("bench: no data envelopes to decrypt")
	}
	return run(cfg, "decrypt_data", logger, func(workerID int, opIndex int64) bool {
		envelope := envelopes[opIndex%int64(len(envelopes))]
		resp := decryptor.DecryptData(envelope)
		return resp.Status == uid2.Success
	})
}

func run(cfg Config, operation string, logger *logrus.Logger, call func(workerID int, opIndex int64) bool) (*Metrics, error) {
	if logger == nil {
		logger = logrus.New()
	}
	logger.WithFields(logrus.Fields{
		"operation": operation,
		"workers":   cfg.NumWorkers,
		"duration":  cfg.Duration,
		"qps":       cfg.QPS,
	}).Info("starting codec throughput bench")

	var total, successful, failed int64
	var latencies []time.Duration
	var latenciesMu sync.Mutex

	interval := time.Duration(0)
	if cfg.QPS > 0 {
		interval = time.Second / time.Duration(cfg.QPS)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	start := time.Now()

	for w := 0; w < cfg.NumWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			var ticker *time.Ticker
			if interval > 0 {
				ticker = time.NewTicker(interval)
				defer ticker.Stop()
			}
			opIndex := int64(0)
			for {
				select {
				case <-stop:
					return
				default:
				}
				if ticker != nil {
					select {
					case <-stop:
						return
					case <-ticker.C:
					}
				}

				opStart := time.Now()
				ok := call(workerID, opIndex)
				latency := time.Since(opStart)
				opIndex++

				atomic.AddInt64(&total, 1)
				if ok {
					atomic.AddInt64(&successful, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}

				latenciesMu.Lock()
				latencies = append(latencies, latency)
				latenciesMu.Unlock()
			}
		}(w)
	}

	time.Sleep(cfg.Duration)
	close(stop)
	wg.Wait()

	elapsed := time.Since(start)

	m := &Metrics{
		Timestamp:       time.Now(),
		Operation:       operation,
		Duration:        elapsed,
		TotalOperations: total,
		SuccessfulOps:   successful,
		FailedOps:       failed,
		MinLatency:      time.Hour,
	}
	if total > 0 {
		m.ErrorRate = float64(failed) / float64(total)
		m.Throughput = float64(total) / elapsed.Seconds()
	}
	if len(latencies) > 0 {
		sorted := append([]time.Duration(nil), latencies...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		m.MinLatency = sorted[0]
		m.MaxLatency = sorted[len(sorted)-1]
		m.AvgLatency = average(sorted)
		m.P50Latency = percentile(sorted, 0.5)
		m.P95Latency = percentile(sorted, 0.95)
		m.P99Latency = percentile(sorted, 0.99)
	} else {
		m.MinLatency = 0
	}

	if cfg.BaselineFile != "" {
		if err := saveBaseline(m, cfg.BaselineFile); err != nil {
			logger.WithError(err).Warn("bench: failed to save baseline metrics")
		}
	}

	return m, nil
}

func average(sorted []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return total / time.Duration(len(sorted))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}

func saveBaseline(m *Metrics, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func loadBaseline(path string) (*Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AnalyzeRegression compares current against the metrics stored at
// baselineFile and flags a regression when average latency or throughput
// moves (in either direction) by more than thresholdPct percent, or when
// the error rate rises by more than thresholdPct percentage points.
func AnalyzeRegression(current *Metrics, baselineFile string, thresholdPct float64) (*RegressionResult, error) {
	baseline, err := loadBaseline(baselineFile)
	if err != nil {
		return nil, err
	}

	result := &RegressionResult{
		Operation: current.Operation,
		Baseline:  baseline,
		Current:   current,
	}

	if baseline.AvgLatency > 0 {
		change := float64(current.AvgLatency-baseline.AvgLatency) / float64(baseline.AvgLatency) * 100
		result.LatencyRegression = change
		if math.Abs(change) > thresholdPct {
			result.SignificantRegression = true
			result.Details = append(result.Details, fmt.Sprintf("latency regression: %.2f%% (threshold %.2f%%)", change, thresholdPct))
		}
	}

	if baseline.Throughput > 0 {
		change := (current.Throughput - baseline.Throughput) / baseline.Throughput * 100
		result.ThroughputRegression = change
		if math.Abs(change) > thresholdPct {
			result.SignificantRegression = true
			result.Details = append(result.Details, fmt.Sprintf("throughput regression: %.2f%% (threshold %.2f%%)", change, thresholdPct))
		}
	}

	errChange := (current.ErrorRate - baseline.ErrorRate) * 100
	result.ErrorRateRegression = errChange
	if errChange > thresholdPct {
		result.SignificantRegression = true
		result.Details = append(result.Details, fmt.Sprintf("error rate increased by %.2f percentage points", errChange))
	}

	return result, nil
}

// PrintMetrics writes a human-readable summary of m to stdout.
func PrintMetrics(m *Metrics) {
	fmt.Printf("\n=== %s bench results ===\n", m.Operation)
	fmt.Printf("Timestamp: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Printf("Duration: %v\n", m.Duration)
	fmt.Printf("Total: %d  Successful: %d  Failed: %d\n", m.TotalOperations, m.SuccessfulOps, m.FailedOps)
	fmt.Printf("Error rate: %.4f%%\n", m.ErrorRate*100)
	fmt.Printf("Throughput: %.2f ops/s\n", m.Throughput)
	fmt.Printf("Latency avg=%v p50=%v p95=%v p99=%v min=%v max=%v\n",
		m.AvgLatency, m.P50Latency, m.P95Latency, m.P99Latency, m.MinLatency, m.MaxLatency)
	fmt.Println("================================")
}

// PrintRegression writes a human-readable summary of r to stdout.
func PrintRegression(r *RegressionResult) {
	fmt.Printf("\n=== %s regression analysis ===\n", r.Operation)
	fmt.Printf("Significant regression: %t\n", r.SignificantRegression)
	fmt.Printf("Latency change: %.2f%%\n", r.LatencyRegression)
	fmt.Printf("Throughput change: %.2f%%\n", r.ThroughputRegression)
	fmt.Printf("Error rate change: %.2f percentage points\n", r.ErrorRateRegression)
	for _, d := range r.Details {
		fmt.Printf("- %s\n", d)
	}
	fmt.Println("================================")
}
