package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/iwvelando/energy-optimizer/internal/client"
	"github.com/iwvelando/energy-optimizer/internal/config"
	"github.com/iwvelando/energy-optimizer/internal/form"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type requestLog struct {
	mu       sync.Mutex
	requests []optimization.OptimizationRequest
}

func (l *requestLog) all() []optimization.OptimizationRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]optimization.OptimizationRequest(nil), l.requests...)
}

func newOptimizerServer(t *testing.T, status int, response string) (*httptest.Server, *requestLog) {
	t.Helper()
	received := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != constants.OptimizePath {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req optimization.OptimizationRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("upstream received invalid body: %v", err)
		}
		received.mu.Lock()
		received.requests = append(received.requests, req)
		received.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

// newSubmitCommand registers the submit flags on a fresh command and parses args.
func newSubmitCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	t.Cleanup(func() {
		submitFields = fieldFlags{}
		submitClient = clientFlags{}
		submitOutputFormat = ""
		submitLink = false
	})

	cmd := &cobra.Command{Use: "submit"}
	submitFields.register(cmd)
	submitClient.register(cmd)
	cmd.Flags().StringVar(&submitOutputFormat, "output-format", "", "")
	cmd.Flags().BoolVar(&submitLink, "link", false, "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return cmd
}

func loadTestConfig(t *testing.T) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return conf
}

func TestRunSubmitJSON(t *testing.T) {
	srv, received := newOptimizerServer(t, http.StatusOK,
		`{"solar_capacity":5,"battery_capacity":2.5,"off_peak_grid_usage":12,"peak_grid_consumption":3}`)
	cmd := newSubmitCommand(t, "--endpoint", srv.URL, "--output-format", "json", "--peak-price", "0.7")

	var out bytes.Buffer
	if err := runSubmit(context.Background(), cmd, loadTestConfig(t), zap.NewNop(), &out); err != nil {
		t.Fatalf("runSubmit() error = %v", err)
	}

	requests := received.all()
	if len(requests) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(requests))
	}
	req := requests[0]
	if req.PeakPrice != 0.7 {
		t.Fatalf("expected flag peak price 0.7, got %v", req.PeakPrice)
	}
	if req.OffPeakPrice != constants.DefaultOffPeakPrice {
		t.Fatalf("expected default off-peak price, got %v", req.OffPeakPrice)
	}
	if len(req.SolarInstallationSizes) != 6 {
		t.Fatalf("expected default solar sizes, got %v", req.SolarInstallationSizes)
	}

	if strings.Contains(out.String(), constants.MessageRunning) {
		t.Fatalf("expected JSON output to omit the running state, got %q", out.String())
	}
	if !strings.Contains(out.String(), "\n  \"solar_capacity\": 5") {
		t.Fatalf("expected indented result, got %q", out.String())
	}
}

func TestRunSubmitInvalidSolarSizes(t *testing.T) {
	srv, received := newOptimizerServer(t, http.StatusOK, `{}`)
	cmd := newSubmitCommand(t, "--endpoint", srv.URL, "--solar-sizes", "[1,2]")

	var out bytes.Buffer
	err := runSubmit(context.Background(), cmd, loadTestConfig(t), zap.NewNop(), &out)

	var validationErr *form.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := len(received.all()); n != 0 {
		t.Fatalf("expected no request, got %d", n)
	}
	if !strings.Contains(out.String(), constants.MessageInvalidSolarSizes) {
		t.Fatalf("expected validation message in output, got %q", out.String())
	}
}

func TestRunSubmitRequestFailure(t *testing.T) {
	srv, _ := newOptimizerServer(t, http.StatusInternalServerError, `{"detail":"solver crashed"}`)
	cmd := newSubmitCommand(t, "--endpoint", srv.URL)

	var out bytes.Buffer
	err := runSubmit(context.Background(), cmd, loadTestConfig(t), zap.NewNop(), &out)

	var reqErr *client.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected request error, got %v", err)
	}
	if reqErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", reqErr.StatusCode)
	}
	if !strings.Contains(out.String(), constants.MessageRequestFailedPrefix) {
		t.Fatalf("expected failure message in output, got %q", out.String())
	}
}

func TestRunSubmitLinkMergesSharedQuery(t *testing.T) {
	srv, received := newOptimizerServer(t, http.StatusOK, `{"solar_capacity":1}`)
	cmd := newSubmitCommand(t,
		"--endpoint", srv.URL,
		"--output-format", "json",
		"--from-url", "https://energy.example.com/form?peakPrice=0.3&utm=mail",
		"--link",
	)

	var out bytes.Buffer
	if err := runSubmit(context.Background(), cmd, loadTestConfig(t), zap.NewNop(), &out); err != nil {
		t.Fatalf("runSubmit() error = %v", err)
	}
	if got := received.all()[0].PeakPrice; got != 0.3 {
		t.Fatalf("expected peak price from shared link, got %v", got)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	link, err := url.Parse(lines[len(lines)-1])
	if err != nil {
		t.Fatalf("failed to parse printed link: %v", err)
	}
	if link.Host != "energy.example.com" || link.Path != "/form" {
		t.Fatalf("expected link to keep the shared base, got %s", link)
	}
	q := link.Query()
	if q.Get("utm") != "mail" {
		t.Fatalf("expected unrelated query parameters to survive, got %v", q)
	}
	if q.Get(constants.QueryPeakPrice) != "0.3" {
		t.Fatalf("expected peakPrice=0.3, got %q", q.Get(constants.QueryPeakPrice))
	}
	if q.Get(constants.QueryOffPeakPrice) != "0.4" {
		t.Fatalf("expected offPeakPrice=0.4, got %q", q.Get(constants.QueryOffPeakPrice))
	}
}

func TestRunSubmitRejectsUnknownFormat(t *testing.T) {
	cmd := newSubmitCommand(t, "--output-format", "csv")

	if err := runSubmit(context.Background(), cmd, loadTestConfig(t), zap.NewNop(), io.Discard); err == nil {
		t.Fatal("expected error for unsupported output format")
	}
}

func TestShareLinkDefaultBase(t *testing.T) {
	f := form.New(nil, form.WithFields(optimization.DefaultFields()))

	link, err := shareLink("", f)
	if err != nil {
		t.Fatalf("shareLink() error = %v", err)
	}
	if !strings.HasPrefix(link, constants.DefaultLinkBase+"?") {
		t.Fatalf("expected link on default base, got %s", link)
	}
	if !strings.Contains(link, "peakPrice=0.5") {
		t.Fatalf("expected peakPrice in link, got %s", link)
	}
}
