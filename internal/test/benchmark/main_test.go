package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"
)

// TestConfig points the benchmark at a running portal
type TestConfig struct {
	BaseURL     string `json:"base_url"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Concurrency int    `json:"concurrency"`
	Requests    int    `json:"requests"`
}

var (
	config    TestConfig
	authToken string
	setupErr  error
)

// TestMain logs in once when BENCHMARK_BASE_URL is set
func TestMain(m *testing.M) {
	if os.Getenv("BENCHMARK_BASE_URL") != "" {
		setupErr = setup()
	}
	os.Exit(m.Run())
}

func setup() error {
	config = TestConfig{
		BaseURL:     os.Getenv("BENCHMARK_BASE_URL"),
		Email:       os.Getenv("BENCHMARK_EMAIL"),
		Password:    os.Getenv("BENCHMARK_PASSWORD"),
		Concurrency: 10,
		Requests:    100,
	}

	if data, err := os.ReadFile("test_config.json"); err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parse test_config.json: %w", err)
		}
	}

	token, err := NewAPIBenchmark(config.BaseURL, 1, 1, "").Login(config.Email, config.Password)
	if err != nil {
		return err
	}
	authToken = token
	return nil
}

func runGET(t *testing.T, path string) {
	if config.BaseURL == "" {
		t.Skip("BENCHMARK_BASE_URL not set")
	}
	if setupErr != nil {
		t.Fatalf("benchmark setup: %v", setupErr)
	}

	result := NewAPIBenchmark(config.BaseURL, config.Concurrency, config.Requests, authToken).RunGET(path)
	result.PrintResult()

	if result.FailureCount > 0 {
		t.Errorf("%s: success rate %.2f%%", path, result.SuccessRate())
	}
}

func TestAnnouncementList(t *testing.T) {
	runGET(t, "/announcements")
}

func TestDocumentList(t *testing.T) {
	runGET(t, "/documents")
}

func TestViolationTypes(t *testing.T) {
	runGET(t, "/violation-types")
}

func TestInbox(t *testing.T) {
	runGET(t, "/messages")
}

func TestSurveyList(t *testing.T) {
	runGET(t, "/surveys")
}
