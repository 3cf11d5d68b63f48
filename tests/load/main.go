// Local load benchmark for the conversion API: runs the whole stack in-process
// against httptest, fires the critical scenarios concurrently, and prints a
// JSON latency report.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mfpereira/llmstxt-api/internal/converter"
	"github.com/mfpereira/llmstxt-api/internal/domain"
	httpserver "github.com/mfpereira/llmstxt-api/internal/http"
	"github.com/mfpereira/llmstxt-api/internal/http/handlers"
	"github.com/mfpereira/llmstxt-api/internal/service"
	"github.com/mfpereira/llmstxt-api/internal/store"
	"github.com/mfpereira/llmstxt-api/internal/tokencount"
)

type scenarioResult struct {
	Name          string   `json:"name"`
	Total         int      `json:"total"`
	Success       int      `json:"success"`
	Errors        int      `json:"errors"`
	P50MS         float64  `json:"p50_ms"`
	P95MS         float64  `json:"p95_ms"`
	P99MS         float64  `json:"p99_ms"`
	MaxMS         float64  `json:"max_ms"`
	ThroughputRPS float64  `json:"throughput_rps"`
	ErrorSamples  []string `json:"error_samples,omitempty"`
}

type profileTokenResult struct {
	FullProfileTokens int     `json:"full_profile_tokens"`
	MinProfileTokens  int     `json:"min_profile_tokens"`
	ReductionPct      float64 `json:"reduction_pct"`
}

type runResult struct {
	GeneratedAtUTC string             `json:"generated_at_utc"`
	Environment    string             `json:"environment"`
	Results        []scenarioResult   `json:"results"`
	ProfileTokens  profileTokenResult `json:"profile_tokens"`
	SLOEvaluation  map[string]bool    `json:"slo_evaluation"`
}

type benchmarkEnv struct {
	server *httptest.Server
}

var sampleDocument = strings.Join([]string{
	"The quarterly delivery report covers the main workstreams of the project,",
	"including schedule risks, budget consumption, and the open client requests.",
	"",
	"A second section details the pending approvals and the expected timeline",
	"for the remaining milestones, with owners assigned per deliverable.",
	"",
	"The closing section lists the agreed follow-up actions and their deadlines.",
}, "\n")

func main() {
	convertTotal := flag.Int("convert-total", 160, "total conversion uploads")
	convertConcurrency := flag.Int("convert-concurrency", 16, "concurrency for conversion uploads")
	analyzeTotal := flag.Int("analyze-total", 260, "total analyzer requests")
	analyzeConcurrency := flag.Int("analyze-concurrency", 24, "concurrency for analyzer requests")
	detectTotal := flag.Int("detect-total", 180, "total content-type detection requests")
	detectConcurrency := flag.Int("detect-concurrency", 20, "concurrency for content-type detection requests")
	archiveTotal := flag.Int("archive-total", 120, "total archive list requests")
	archiveConcurrency := flag.Int("archive-concurrency", 20, "concurrency for archive list requests")
	outputPath := flag.String("output", "", "optional path to persist benchmark results JSON")
	flag.Parse()

	env, err := startBenchmarkEnvironment()
	if err != nil {
		log.Fatalf("failed to start local benchmark environment: %v", err)
	}
	defer env.server.Close()

	client := &http.Client{Timeout: 10 * time.Second}

	convertScenario := runScenario("convert_upload", *convertTotal, *convertConcurrency, func(index int) error {
		filename := fmt.Sprintf("doc-%d.txt", index%32)
		return uploadFile(client, env.server.URL+"/v1/convert", filename, sampleDocument, `{"profile":"llms-min"}`)
	})

	analyzeScenario := runScenario("analyzer_tokens", *analyzeTotal, *analyzeConcurrency, func(index int) error {
		payload := map[string]any{
			// Vary the content so the analysis cache does not absorb the load.
			"content":    fmt.Sprintf("# Title: doc-%d\nx\n\n# Content\n%s", index%64, sampleDocument),
			"model_name": "gpt-4o",
		}
		return postJSON(client, env.server.URL+"/v1/analyzer/tokens", payload, http.StatusOK)
	})

	detectScenario := runScenario("detect_content_type", *detectTotal, *detectConcurrency, func(index int) error {
		payload := map[string]any{
			"content": fmt.Sprintf("# Content\ncase %d: Art. 1º desta lei define a norma e o regulamento do contrato.", index%64),
		}
		return postJSON(client, env.server.URL+"/v1/analyzer/detect-content-type", payload, http.StatusOK)
	})

	archiveScenario := runScenario("archive_list", *archiveTotal, *archiveConcurrency, func(index int) error {
		return getJSON(client, fmt.Sprintf("%s/v1/jobs/archive?limit=%d", env.server.URL, (index%10)+10), http.StatusOK)
	})

	profileTokens := runProfileTokenScenario()
	results := []scenarioResult{
		convertScenario,
		analyzeScenario,
		detectScenario,
		archiveScenario,
	}

	slo := map[string]bool{
		"convert_enqueue_p95_le_500ms": convertScenario.P95MS <= 500,
		"analyzer_p95_le_2000ms":       analyzeScenario.P95MS <= 2000,
	}

	report := runResult{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Environment:    "local-httptest",
		Results:        results,
		ProfileTokens:  profileTokens,
		SLOEvaluation:  slo,
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal benchmark report: %v", err)
	}

	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, encoded, 0o644); err != nil {
			log.Fatalf("failed to write output file: %v", err)
		}
	}

	_, _ = fmt.Fprintln(os.Stdout, string(encoded))
}

func startBenchmarkEnvironment() (*benchmarkEnv, error) {
	logger := log.New(io.Discard, "", 0)

	uploadDir, err := os.MkdirTemp("", "llmstxt-bench-")
	if err != nil {
		return nil, err
	}

	counter := tokencount.New(logger)
	jobsService := service.NewJobsService(service.JobsDependencies{
		Store:     store.NewMemoryJobStore(),
		Converter: converter.NewLocalConverter(converter.LocalConfig{Logger: logger}),
		Counter:   counter,
		Logger:    logger,
		UploadDir: uploadDir,
	})
	analysisService := service.NewAnalysisService(counter, logger)

	api := handlers.NewAPI(handlers.APIConfig{
		Jobs:     jobsService,
		Analysis: analysisService,
	})
	router := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      "",
		RateLimitRPS:   20000,
		RateLimitBurst: 20000,
	})

	return &benchmarkEnv{server: httptest.NewServer(router)}, nil
}

func runScenario(
	name string,
	total int,
	concurrency int,
	requestFn func(index int) error,
) scenarioResult {
	if total <= 0 {
		return scenarioResult{Name: name}
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	startedAt := time.Now()
	type sample struct {
		durationMS float64
		err        string
	}

	jobs := make(chan int, total)
	results := make(chan sample, total)
	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				requestStart := time.Now()
				err := requestFn(index)
				s := sample{
					durationMS: float64(time.Since(requestStart).Microseconds()) / 1000.0,
				}
				if err != nil {
					s.err = err.Error()
				}
				results <- s
			}
		}()
	}
	wg.Wait()
	close(results)

	durations := make([]float64, 0, total)
	errorSamples := make([]string, 0, 5)
	success := 0
	errorsCount := 0
	for item := range results {
		durations = append(durations, item.durationMS)
		if item.err == "" {
			success++
			continue
		}
		errorsCount++
		if len(errorSamples) < 5 {
			errorSamples = append(errorSamples, item.err)
		}
	}

	sort.Float64s(durations)
	elapsedSeconds := time.Since(startedAt).Seconds()
	throughput := 0.0
	if elapsedSeconds > 0 {
		throughput = float64(total) / elapsedSeconds
	}

	return scenarioResult{
		Name:          name,
		Total:         total,
		Success:       success,
		Errors:        errorsCount,
		P50MS:         percentile(durations, 0.50),
		P95MS:         percentile(durations, 0.95),
		P99MS:         percentile(durations, 0.99),
		MaxMS:         percentile(durations, 1.00),
		ThroughputRPS: round2(throughput),
		ErrorSamples:  errorSamples,
	}
}

func uploadFile(client *http.Client, url, filename, content, params string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if params != "" {
		if err := writer.WriteField("params", params); err != nil {
			return fmt.Errorf("write params field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	request, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	response, err := client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", response.StatusCode, string(raw))
	}
	_, _ = io.Copy(io.Discard, response.Body)
	return nil
}

func postJSON(client *http.Client, url string, payload any, expectedStatus int) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != expectedStatus {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return fmt.Errorf("unexpected status %d (expected %d): %s", response.StatusCode, expectedStatus, string(body))
	}
	_, _ = io.Copy(io.Discard, response.Body)
	return nil
}

func getJSON(client *http.Client, url string, expectedStatus int) error {
	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != expectedStatus {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return fmt.Errorf("unexpected status %d (expected %d): %s", response.StatusCode, expectedStatus, string(body))
	}
	_, _ = io.Copy(io.Discard, response.Body)
	return nil
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return round2(values[0])
	}
	if p >= 1 {
		return round2(values[len(values)-1])
	}
	rank := int(math.Ceil(float64(len(values))*p)) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(values) {
		rank = len(values) - 1
	}
	return round2(values[rank])
}

// runProfileTokenScenario measures how much the minimal profile shrinks the
// token budget relative to the full profile for the same document.
func runProfileTokenScenario() profileTokenResult {
	logger := log.New(io.Discard, "", 0)
	conv := converter.NewLocalConverter(converter.LocalConfig{Logger: logger})
	counter := tokencount.New(logger)

	dir, err := os.MkdirTemp("", "llmstxt-tokens-")
	if err != nil {
		return profileTokenResult{}
	}
	defer os.RemoveAll(dir)

	path := dir + "/sample.txt"
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		return profileTokenResult{}
	}

	fullTokens := profileTokenCount(conv, counter, path, domain.ProfileFull)
	minTokens := profileTokenCount(conv, counter, path, domain.ProfileMin)

	reduction := 0.0
	if fullTokens > 0 {
		reduction = (float64(fullTokens-minTokens) / float64(fullTokens)) * 100
	}
	return profileTokenResult{
		FullProfileTokens: fullTokens,
		MinProfileTokens:  minTokens,
		ReductionPct:      round2(reduction),
	}
}

func profileTokenCount(conv *converter.LocalConverter, counter *tokencount.Counter, path, profile string) int {
	result, err := conv.Convert(context.Background(), converter.Request{FilePath: path, Profile: profile})
	if err != nil {
		return 0
	}
	return counter.Count(result.Formats[domain.FormatLLMS], "gpt-4o")
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
