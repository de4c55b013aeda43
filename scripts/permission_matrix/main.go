// Command permission_matrix logs in as each configured account and checks that
// every target endpoint is allowed or denied as the matrix expects. It exits
// non-zero when a critical expectation fails.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type target struct {
	Method   string          `json:"method"`
	Path     string          `json:"path"`
	Body     json.RawMessage `json:"body,omitempty"`
	Critical bool            `json:"critical"`
	// Allowed lists the account names expected to pass the permission guard.
	Allowed []string `json:"allowed"`
}

type account struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type matrix struct {
	Accounts []account `json:"accounts"`
	Targets  []target  `json:"targets"`
}

type result struct {
	Account  string
	Target   target
	Status   int
	Expected bool
	Allowed  bool
	Duration time.Duration
	Error    error
}

func (r result) ok() bool {
	return r.Error == nil && r.Expected == r.Allowed
}

func main() {
	var (
		base       string
		matrixPath string
		timeout    time.Duration
	)
	pflag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	pflag.StringVar(&matrixPath, "matrix", filepath.Join("scripts", "permission_matrix", "matrix.json"), "Path to JSON matrix file")
	pflag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	pflag.Parse()

	m, err := loadMatrix(matrixPath)
	if err != nil {
		log.Fatalf("failed to load matrix: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		breaking int
		optional int
	)
	for _, acc := range m.Accounts {
		token, err := login(client, base, acc)
		if err != nil {
			log.Fatalf("login %s: %v", acc.Name, err)
		}
		for _, t := range m.Targets {
			res := check(client, base, token, acc.Name, t)
			if !res.ok() {
				if t.Critical {
					breaking++
				} else {
					optional++
				}
			}
			results = append(results, res)
		}
	}

	printReport(results)
	fmt.Printf("Breaking mismatches: %d, Optional mismatches: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadMatrix(path string) (*matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Accounts) == 0 || len(m.Targets) == 0 {
		return nil, fmt.Errorf("matrix %s needs accounts and targets", path)
	}
	return &m, nil
}

func login(client *http.Client, base string, acc account) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": acc.Email, "password": acc.Password})
	resp, _, err := perform(client, base, "", target{Method: http.MethodPost, Path: "/auth/login", Body: body})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	var env struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	if env.Data.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	return env.Data.AccessToken, nil
}

// check treats anything but 401 and 403 as having passed the guard. Validation
// or not-found errors behind the guard still count as allowed.
func check(client *http.Client, base, token, name string, tgt target) result {
	res := result{Account: name, Target: tgt, Expected: contains(tgt.Allowed, name)}
	resp, dur, err := perform(client, base, token, tgt)
	res.Duration = dur
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	res.Status = resp.StatusCode
	res.Allowed = resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden
	return res
}

func perform(client *http.Client, base, token string, tgt target) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var body io.Reader
	if len(tgt.Body) > 0 {
		body = bytes.NewReader(tgt.Body)
	}
	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func printReport(results []result) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Account < results[j].Account })
	fmt.Println("Permission Matrix Report")
	fmt.Println("========================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case !res.ok():
			status = "MISMATCH"
		}
		fmt.Printf("[%s] %-8s %s %s\n", status, res.Account, res.Target.Method, res.Target.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (%s) | expected allowed: %t | critical: %t\n", res.Status, res.Duration, res.Expected, res.Target.Critical)
	}
}
