package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kenneth/uid2-client-go/internal/bench"
	"github.com/kenneth/uid2-client-go/internal/keystore"
	"github.com/kenneth/uid2-client-go/internal/model"
	"github.com/kenneth/uid2-client-go/uid2"
)

func main() {
	var (
		keysFile       = flag.String("keys-file", "", "path to a key-source JSON file (required)")
		operation      = flag.String("operation", "decrypt_token", "decrypt_token, encrypt_data, decrypt_data, or all")
		duration       = flag.Duration("duration", 10*time.Second, "bench duration per operation")
		workers        = flag.Int("workers", 8, "number of worker goroutines")
		qps            = flag.Int("qps", 0, "queries per second per worker; 0 is unthrottled")
		siteID         = flag.Int("site-id", 101, "site ID to bench against; its key must be present in keys-file")
		payloadSize    = flag.Int("payload-size", 64, "payload size in bytes for encrypt_data/decrypt_data")
		fixtureCount   = flag.Int("fixture-count", 1000, "number of distinct synthetic tokens/envelopes to cycle through")
		baselineDir    = flag.String("baseline-dir", "testdata/baselines", "directory for baseline files")
		threshold      = flag.Float64("threshold", 10.0, "regression threshold percentage")
		verbose        = flag.Bool("verbose", false, "enable verbose logging")
		updateBaseline = flag.Bool("update-baseline", false, "write a new baseline instead of checking regression")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if *keysFile == "" {
		log.Fatal("--keys-file is required")
	}
	if err := os.MkdirAll(*baselineDir, 0755); err != nil {
		log.Fatalf("failed to create baseline directory: %v", err)
	}

	keys, err := keystore.LoadKeysFromFile(*keysFile)
	if err != nil {
		log.Fatalf("failed to load keys: %v", err)
	}

	store := keystore.NewMemoryKeyStore(0)
	store.Refresh(keys, time.Now())

	masterKey, siteKey, err := pickBenchKeys(keys, int32(*siteID))
	if err != nil {
		log.Fatalf("failed to select bench keys: %v", err)
	}

	decryptor := uid2.NewDecryptor(uid2.ScopeUID2, store, uid2.WithLogger(logger))

	fmt.Println("=== uid2 codec throughput bench ===")
	fmt.Printf("Operation: %s\n", *operation)
	fmt.Printf("Duration: %v\n", *duration)
	fmt.Printf("Workers: %d\n", *workers)
	fmt.Printf("Site ID: %d\n", *siteID)
	fmt.Println()

	cfg := bench.Config{
		NumWorkers:          *workers,
		Duration:            *duration,
		QPS:                 *qps,
		RegressionThreshold: *threshold,
	}

	exitCode := 0
	ops := []string{*operation}
	if *operation == "all" {
		ops = []string{"decrypt_token", "encrypt_data", "decrypt_data"}
	}

	for _, op := range ops {
		opCfg := cfg
		baselineFile := filepath.Join(*baselineDir, op+"_baseline.json")
		if *updateBaseline {
			opCfg.BaselineFile = baselineFile
		}

		m, err := runOperation(op, opCfg, decryptor, masterKey, siteKey, int32(*siteID), *fixtureCount, *payloadSize, logger)
		if err != nil {
			log.Printf("%s bench failed: %v", op, err)
			exitCode = 1
			continue
		}

		bench.PrintMetrics(m)

		if *updateBaseline {
			fmt.Printf("baseline updated for %s\n", op)
			continue
		}

		regression, err := bench.AnalyzeRegression(m, baselineFile, *threshold)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("no baseline found for %s - run with --update-baseline to create one\n", op)
				continue
			}
			log.Printf("regression analysis failed for %s: %v", op, err)
			exitCode = 1
			continue
		}

		bench.PrintRegression(regression)
		if regression.SignificantRegression {
			exitCode = 1
		}
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	fmt.Println("bench complete")
}

func runOperation(op string, cfg bench.Config, decryptor *uid2.Decryptor, masterKey, siteKey model.Key, siteID int32, fixtureCount, payloadSize int, logger *logrus.Logger) (*bench.Metrics, error) {
	now := time.Now()
	switch op {
	case "decrypt_token":
		tokens, err := bench.GenerateV2Tokens(fixtureCount, masterKey, siteKey, siteID, now.UnixMilli(), now.Add(24*time.Hour).UnixMilli())
		if err != nil {
			return nil, err
		}
		return bench.RunDecryptTokenBench(cfg, decryptor, tokens, logger)
	case "encrypt_data":
		payload := make([]byte, payloadSize)
		return bench.RunEncryptDataBench(cfg, decryptor, siteID, payload, logger)
	case "decrypt_data":
		envelopes, err := bench.GenerateV2DataEnvelopes(fixtureCount, siteKey, siteID, now.UnixMilli(), payloadSize)
		if err != nil {
			return nil, err
		}
		return bench.RunDecryptDataBench(cfg, decryptor, envelopes, logger)
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

// pickBenchKeys finds a master key (the first key not belonging to siteID)
// and a site key (the first key belonging to siteID) in keys, the pair the
// bench CLI needs to mint synthetic tokens. Key activity is not checked.
func pickBenchKeys(keys []model.Key, siteID int32) (model.Key, model.Key, error) {
	var masterKey model.Key
	var siteKey model.Key
	haveMaster, haveSite := false, false

	for _, k := range keys {
		if k.SiteID == siteID && !haveSite {
			siteKey = k
			haveSite = true
		} else if k.SiteID != siteID && !haveMaster {
			masterKey = k
			haveMaster = true
		}
	}
	if !haveMaster || !haveSite {
		return model.Key{}, model.Key{}, fmt.Errorf("keys-file must contain both a master key and a key for site %d", siteID)
	}
	return masterKey, siteKey, nil
}
