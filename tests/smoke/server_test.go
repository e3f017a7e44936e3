//go:build smoke

package smoke

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	authn "github.com/codr1/Courtside/internal/auth"
	"github.com/codr1/Courtside/internal/db"
	dbgen "github.com/codr1/Courtside/internal/db/generated"
	"github.com/codr1/Courtside/internal/testutil"
)

const (
	smokeEmail    = "owner@club.test"
	smokePassword = "smoke-test-password"
)

// startServer builds the binary, writes a config next to it and waits for
// /health. It returns the base URL.
func startServer(t *testing.T, dbPath string) string {
	t.Helper()

	repoRoot := findRepoRoot(t)
	tempDir := t.TempDir()

	binPath := filepath.Join(tempDir, "courtside-server")
	buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/server")
	buildCmd.Dir = repoRoot
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build server: %v\n%s", err, buildOutput)
	}

	port := reservePort(t)
	configPath := filepath.Join(tempDir, "config.yaml")
	configBody := fmt.Sprintf(`app:
  name: "Courtside"
  environment: "development"
  port: %d
  base_url: "http://localhost:%d"

database:
  driver: "sqlite"
  filename: "%s"

club:
  name: "Smoke Club"
  timezone: "UTC"
  locale: "en"

clients:
  phone_region: "AR"

auth:
  provider: "local"

features:
  enable_debug: true
  live_updates: true
`, port, port, filepath.ToSlash(dbPath))

	if err := os.WriteFile(configPath, []byte(configBody), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := exec.Command(binPath)
	cmd.Dir = tempDir
	cmd.Env = append(os.Environ(),
		"CONFIG_PATH="+configPath,
		"APP_SECRET_KEY=test-secret-key-for-smoke-tests-only",
	)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	waitDone := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(waitDone)
	}()

	t.Cleanup(func() {
		if cmd.Process == nil {
			return
		}
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-waitDone:
			return
		case <-time.After(5 * time.Second):
		}
		_ = cmd.Process.Kill()
		select {
		case <-waitDone:
		case <-time.After(5 * time.Second):
			t.Logf("server process did not exit after kill")
		}
	})

	baseURL := fmt.Sprintf("http://localhost:%d", port)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	deadline := time.Now().Add(10 * time.Second)

	for {
		select {
		case <-waitDone:
			t.Fatalf("server exited before health check: %v\nstdout:\n%s\nstderr:\n%s", waitErr, stdout.String(), stderr.String())
		default:
		}

		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}

		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for health check\nstdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String())
		}

		time.Sleep(100 * time.Millisecond)
	}

	return baseURL
}

func TestServerStartup(t *testing.T) {
	baseURL := startServer(t, filepath.Join(t.TempDir(), "db", "smoke.db"))

	resp, err := http.Get(baseURL + "/api/v1/calendar")
	if err != nil {
		t.Fatalf("calendar request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected calendar to require a session, got %d", resp.StatusCode)
	}
}

func seedOwner(t *testing.T, dbPath string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("create db dir: %v", err)
	}
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	hash, err := authn.HashPassword(smokePassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := database.Queries.CreateStaff(context.Background(), dbgen.CreateStaffParams{
		Name:         "Owner",
		Email:        smokeEmail,
		PasswordHash: hash,
		Role:         "admin",
	}); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
}

func TestBookingFlowSmoke(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db", "smoke.db")
	seedOwner(t, dbPath)
	baseURL := startServer(t, dbPath)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: 5 * time.Second}

	send := func(method, path, body string) (*http.Response, []byte) {
		t.Helper()
		req, err := http.NewRequest(method, baseURL+path, strings.NewReader(body))
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp, data
	}

	if resp, data := send(http.MethodPost, "/api/v1/auth/sign-in", fmt.Sprintf(`{"email":%q,"password":%q}`, smokeEmail, smokePassword)); resp.StatusCode != http.StatusOK {
		t.Fatalf("sign-in failed: %d %s", resp.StatusCode, data)
	}

	resp, data := send(http.MethodPost, "/api/v1/courts", `{"name":"Central","sports":["padel"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create court failed: %d %s", resp.StatusCode, data)
	}
	var court struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &court); err != nil {
		t.Fatalf("decode court: %v", err)
	}

	booking := fmt.Sprintf(`{"courtId":%d,"date":"2030-06-03","startTime":"18:00","durationMinutes":90,"clientName":"Ana","clientPhone":"011 4321-5678","priceCents":2500}`, court.ID)
	if resp, data := send(http.MethodPost, "/api/v1/reservations", booking); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create reservation failed: %d %s", resp.StatusCode, data)
	}
	if resp, _ := send(http.MethodPost, "/api/v1/reservations", booking); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected duplicate booking to conflict, got %d", resp.StatusCode)
	}

	resp, data = send(http.MethodGet, "/api/v1/calendar?date=2030-06-03", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calendar failed: %d %s", resp.StatusCode, data)
	}
	if !strings.Contains(string(data), `"state":"occupied"`) {
		t.Fatalf("expected an occupied cell in calendar: %s", data)
	}

	resp, data = send(http.MethodGet, "/api/v1/clients?search=ana", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "+541143215678") {
		t.Fatalf("expected client created from booking: %d %s", resp.StatusCode, data)
	}

	resp, data = send(http.MethodPost, "/api/v1/staff", `{"name":"Front Desk","email":"desk@club.test","password":"courtside-desk"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create staff failed: %d %s", resp.StatusCode, data)
	}
}

func reservePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

func findRepoRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	t.Fatal("failed to locate repo root with go.mod")
	return ""
}

func TestMigrationsApplied(t *testing.T) {
	db := testutil.NewTestDB(t)

	expectedTables := []string{
		"courts",
		"weekly_schedule",
		"clients",
		"reservations",
		"staff",
		"products",
	}

	for _, table := range expectedTables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name = ?",
			table,
		).Scan(&name)
		if err == sql.ErrNoRows {
			t.Fatalf("missing expected table %q after migrations", table)
		}
		if err != nil {
			t.Fatalf("query table %q existence: %v", table, err)
		}
	}
}

func TestForeignKeyIntegrity(t *testing.T) {
	db := testutil.NewTestDB(t)

	var foreignKeysEnabled int
	if err := db.QueryRow("PRAGMA foreign_keys;").Scan(&foreignKeysEnabled); err != nil {
		t.Fatalf("query foreign_keys pragma: %v", err)
	}
	if foreignKeysEnabled != 1 {
		t.Fatalf("expected foreign_keys pragma enabled, got %d", foreignKeysEnabled)
	}

	_, err := db.Exec(
		`INSERT INTO reservations (court_id, client_name, start_time, end_time, slot_key, status)
		 VALUES (9999, 'Ghost', '2030-01-01 10:00', '2030-01-01 11:00', '2030-01-01 10', 'confirmed')`,
	)
	if err == nil {
		t.Fatal("expected foreign key constraint failure for invalid court_id")
	}
}
