package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// LoadTestConfig holds configuration for load testing
type LoadTestConfig struct {
	BaseURL         string
	Pairs           int
	CreateAttempts  int
	DecideAttempts  int
	ConcurrentUsers int
}

// LoadTestResult holds the results of load testing
type LoadTestResult struct {
	TotalRequests     int
	SuccessfulReqs    int
	ConflictReqs      int
	FailedReqs        int
	AvgResponseTimeMs float64
	MaxResponseTimeMs int64
	MinResponseTimeMs int64
	ThroughputRPS     float64
	ErrorsByType      map[string]int

	// per pair: how many creates returned 201 and how many accept/decline calls returned 200
	CreatedPerPair map[int]int
	DecidedPerPair map[int]int
}

type member struct {
	id    string
	token string
}

type pair struct {
	requester member
	receiver  member
	requestID string
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// LoadTester races concurrent swap request creation and accept/decline calls
type LoadTester struct {
	config    LoadTestConfig
	client    *http.Client
	pairs     []*pair
	results   LoadTestResult
	mutex     sync.Mutex
	startTime time.Time
}

// NewLoadTester creates a new load tester
func NewLoadTester(config LoadTestConfig) *LoadTester {
	return &LoadTester{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		results: newLoadTestResult(),
	}
}

func newLoadTestResult() LoadTestResult {
	return LoadTestResult{
		ErrorsByType:   make(map[string]int),
		CreatedPerPair: make(map[int]int),
		DecidedPerPair: make(map[int]int),
	}
}

// Initialize registers and logs in two users per pair
func (lt *LoadTester) Initialize() error {
	fmt.Println("Initializing load test users...")

	run := uuid.NewString()[:8]
	for i := 0; i < lt.config.Pairs; i++ {
		requester, err := lt.signup(fmt.Sprintf("lt-%s-a%d", run, i), "teaching", "painting")
		if err != nil {
			return err
		}
		receiver, err := lt.signup(fmt.Sprintf("lt-%s-b%d", run, i), "painting", "teaching")
		if err != nil {
			return err
		}
		lt.pairs = append(lt.pairs, &pair{requester: requester, receiver: receiver})
	}

	fmt.Printf("Registered %d users in %d pairs\n", 2*len(lt.pairs), len(lt.pairs))
	return nil
}

func (lt *LoadTester) signup(name, offered, wanted string) (member, error) {
	email := name + "@loadtest.local"
	status, env, err := lt.post("/api/v1/auth/register", "", map[string]any{
		"name":           name,
		"email":          email,
		"password":       "loadtest-password",
		"availability":   "anytime",
		"skills_offered": []string{offered},
		"skills_wanted":  []string{wanted},
		"is_public":      true,
	})
	if err != nil {
		return member{}, err
	}
	if status != http.StatusCreated {
		return member{}, fmt.Errorf("register %s: unexpected status %d (%s)", name, status, env.Code)
	}
	var created struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		return member{}, err
	}

	status, env, err = lt.post("/api/v1/auth/login", "", map[string]any{"email": email, "password": "loadtest-password"})
	if err != nil {
		return member{}, err
	}
	if status != http.StatusOK {
		return member{}, fmt.Errorf("login %s: unexpected status %d (%s)", name, status, env.Code)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		return member{}, err
	}
	return member{id: created.UserID, token: login.Token}, nil
}

// RunLoadTest executes both phases and prints the results
func (lt *LoadTester) RunLoadTest() {
	fmt.Printf("Starting load test with %d concurrent callers...\n", lt.config.ConcurrentUsers)

	lt.startTime = time.Now()
	semaphore := make(chan struct{}, lt.config.ConcurrentUsers)

	lt.runPhase(semaphore, lt.config.CreateAttempts, lt.simulateCreate)
	lt.runPhase(semaphore, lt.config.DecideAttempts, lt.simulateDecision)

	lt.calculateMetrics()
	lt.printResults()
}

func (lt *LoadTester) runPhase(semaphore chan struct{}, attempts int, fn func(pairIdx, attempt int)) {
	var wg sync.WaitGroup
	for p := range lt.pairs {
		for a := 0; a < attempts; a++ {
			wg.Add(1)
			go func(p, a int) {
				defer wg.Done()
				semaphore <- struct{}{}
				defer func() { <-semaphore }()
				fn(p, a)
			}(p, a)
		}
	}
	wg.Wait()
}

// simulateCreate fires one of many identical creates for a pair; only one may win.
func (lt *LoadTester) simulateCreate(pairIdx, attempt int) {
	p := lt.pairs[pairIdx]
	startTime := time.Now()

	status, env, err := lt.post("/api/v1/requests", p.requester.token, map[string]any{
		"receiver_id":   p.receiver.id,
		"offered_skill": "teaching",
		"wanted_skill":  "painting",
		"message":       fmt.Sprintf("attempt %d", attempt),
	})
	if err != nil {
		lt.recordError("http_request")
		return
	}
	lt.recordResponse(status, time.Since(startTime))

	if status == http.StatusCreated {
		var created struct {
			RequestID string `json:"request_id"`
		}
		if err := json.Unmarshal(env.Data, &created); err == nil {
			lt.mutex.Lock()
			p.requestID = created.RequestID
			lt.results.CreatedPerPair[pairIdx]++
			lt.mutex.Unlock()
		}
	}
}

// simulateDecision alternates accept and decline from the receiver; only one may win.
func (lt *LoadTester) simulateDecision(pairIdx, attempt int) {
	p := lt.pairs[pairIdx]
	lt.mutex.Lock()
	requestID := p.requestID
	lt.mutex.Unlock()
	if requestID == "" {
		return
	}

	action := "accept"
	if attempt%2 == 1 {
		action = "decline"
	}

	startTime := time.Now()
	status, _, err := lt.post("/api/v1/requests/"+requestID+"/"+action, p.receiver.token, nil)
	if err != nil {
		lt.recordError("http_request")
		return
	}
	lt.recordResponse(status, time.Since(startTime))

	if status == http.StatusOK {
		lt.mutex.Lock()
		lt.results.DecidedPerPair[pairIdx]++
		lt.mutex.Unlock()
	}
}

func (lt *LoadTester) post(path, token string, body any) (int, apiEnvelope, error) {
	var env apiEnvelope

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, env, err
		}
	}

	req, err := http.NewRequest(http.MethodPost, lt.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, env, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := lt.client.Do(req)
	if err != nil {
		return 0, env, err
	}
	defer resp.Body.Close()

	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env, nil
}

// recordResponse records the response metrics
func (lt *LoadTester) recordResponse(statusCode int, responseTime time.Duration) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	responseTimeMs := responseTime.Milliseconds()

	if lt.results.MaxResponseTimeMs < responseTimeMs {
		lt.results.MaxResponseTimeMs = responseTimeMs
	}
	if lt.results.MinResponseTimeMs == 0 || lt.results.MinResponseTimeMs > responseTimeMs {
		lt.results.MinResponseTimeMs = responseTimeMs
	}

	currentAvg := lt.results.AvgResponseTimeMs
	currentCount := float64(lt.results.TotalRequests)
	lt.results.AvgResponseTimeMs = (currentAvg*(currentCount-1) + float64(responseTimeMs)) / currentCount

	switch {
	case statusCode >= 200 && statusCode < 300:
		lt.results.SuccessfulReqs++
	case statusCode == http.StatusConflict: // lost the race
		lt.results.ConflictReqs++
	default:
		lt.results.FailedReqs++
		lt.results.ErrorsByType[fmt.Sprintf("http_%d", statusCode)]++
	}
}

// recordError records an error that occurred during testing
func (lt *LoadTester) recordError(errorType string) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	lt.results.FailedReqs++
	lt.results.ErrorsByType[errorType]++
}

// calculateMetrics calculates final test metrics
func (lt *LoadTester) calculateMetrics() {
	totalDuration := time.Since(lt.startTime)
	lt.results.ThroughputRPS = float64(lt.results.TotalRequests) / totalDuration.Seconds()
}

// Violations counts pairs where more or fewer than one create or decision succeeded.
func (lt *LoadTester) Violations() (creates, decisions int) {
	for i := range lt.pairs {
		if lt.results.CreatedPerPair[i] != 1 {
			creates++
		}
		if lt.results.DecidedPerPair[i] != 1 {
			decisions++
		}
	}
	return creates, decisions
}

// printResults displays the load test results
func (lt *LoadTester) printResults() {
	fmt.Println("\n" + strings.Repeat("=", 80))

	fmt.Printf("Test Configuration:\n")
	fmt.Printf("  - Concurrent Callers: %d\n", lt.config.ConcurrentUsers)
	fmt.Printf("  - Pairs: %d\n", len(lt.pairs))
	fmt.Printf("  - Create Attempts per Pair: %d\n", lt.config.CreateAttempts)
	fmt.Printf("  - Decision Attempts per Pair: %d\n", lt.config.DecideAttempts)

	total := float64(lt.results.TotalRequests)
	if total == 0 {
		total = 1
	}
	fmt.Printf("\nOverall Performance:\n")
	fmt.Printf("  - Total Requests: %d\n", lt.results.TotalRequests)
	fmt.Printf("  - Successful: %d (%.2f%%)\n", lt.results.SuccessfulReqs, float64(lt.results.SuccessfulReqs)/total*100)
	fmt.Printf("  - Lost Races (409): %d (%.2f%%)\n", lt.results.ConflictReqs, float64(lt.results.ConflictReqs)/total*100)
	fmt.Printf("  - Failed: %d (%.2f%%)\n", lt.results.FailedReqs, float64(lt.results.FailedReqs)/total*100)

	fmt.Printf("\nResponse Time Metrics:\n")
	fmt.Printf("  - Average: %.2f ms\n", lt.results.AvgResponseTimeMs)
	fmt.Printf("  - Minimum: %d ms\n", lt.results.MinResponseTimeMs)
	fmt.Printf("  - Maximum: %d ms\n", lt.results.MaxResponseTimeMs)

	fmt.Printf("\nThroughput:\n")
	fmt.Printf("  - Requests per Second: %.2f\n", lt.results.ThroughputRPS)

	if len(lt.results.ErrorsByType) > 0 {
		fmt.Printf("\nError Breakdown:\n")
		for errorType, count := range lt.results.ErrorsByType {
			fmt.Printf("  - %s: %d\n", errorType, count)
		}
	}

	creates, decisions := lt.Violations()
	fmt.Printf("\nRace Analysis:\n")
	if creates == 0 {
		fmt.Printf("  ✅ Exactly one pending request per pair\n")
	} else {
		fmt.Printf("  ❌ %d pairs did not end with exactly one created request\n", creates)
	}
	if decisions == 0 {
		fmt.Printf("  ✅ Exactly one accept/decline won per request\n")
	} else {
		fmt.Printf("  ❌ %d requests did not see exactly one winning decision\n", decisions)
	}
}

// loadtestCmd represents the loadtest command
var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Race concurrent swap requests against a running server",
	Long: `Register user pairs, then fire many identical swap requests per pair at once
followed by concurrent accept and decline calls from the receiver. Each pair
must end with exactly one created request and exactly one winning decision.`,
	Run: func(cmd *cobra.Command, args []string) {
		runLoadTest()
	},
}

var (
	baseURL         string
	numPairs        int
	createAttempts  int
	decideAttempts  int
	concurrentUsers int
)

func init() {
	rootCmd.AddCommand(loadtestCmd)

	loadtestCmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the skillswap API")
	loadtestCmd.Flags().IntVar(&numPairs, "pairs", 20, "Number of requester/receiver pairs")
	loadtestCmd.Flags().IntVar(&createAttempts, "creates", 10, "Concurrent create attempts per pair")
	loadtestCmd.Flags().IntVar(&decideAttempts, "decisions", 10, "Concurrent accept/decline attempts per pair")
	loadtestCmd.Flags().IntVar(&concurrentUsers, "concurrent", 50, "Maximum in-flight requests")
}

func runLoadTest() {
	config := LoadTestConfig{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		Pairs:           numPairs,
		CreateAttempts:  createAttempts,
		DecideAttempts:  decideAttempts,
		ConcurrentUsers: concurrentUsers,
	}

	loadTester := NewLoadTester(config)
	if err := loadTester.Initialize(); err != nil {
		fmt.Printf("Initialization failed: %v\n", err)
		return
	}

	fmt.Println("Skillswap Load Test")
	fmt.Println("===================")

	loadTester.RunLoadTest()
}
