package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/threatpulse/internal/config"
	"github.com/kalambet/threatpulse/internal/threat"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Report and location are required"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestAnalyzeOne(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/analyze": `{"success":true,"analysis":{"category":"street-smart","riskScore":81,"confidence":90,"summary":"Phone snatching","threatType":"theft","severity":"critical","relevantFor":[],"actionableInsights":["Keep phone away from the curb"]}}`,
	})

	a, err := analyzeOne(ctx, ts.client(), reportInput{Report: "phone grabbed", Location: "Paris"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Category != threat.CategoryStreetSmart || a.RiskScore != 81 || a.Severity != threat.SeverityCritical {
		t.Errorf("analysis = %+v", a)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	var sent map[string]string
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &sent); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if sent["report"] != "phone grabbed" || sent["location"] != "Paris" {
		t.Errorf("sent body = %v", sent)
	}
}

func TestAnalyzeOne_ServerError(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	_, err := analyzeOne(ctx, ts.client(), reportInput{Report: "", Location: "Paris"})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "Report and location are required") {
		t.Errorf("error = %q, want server message", err.Error())
	}
}

func TestAnalyzeBatch(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/analyze/batch": `{"success":true,"analyses":[{"riskScore":10},{"riskScore":90}]}`,
	})

	results, err := analyzeBatch(ctx, ts.client(), []reportInput{
		{Report: "a", Location: "x"},
		{Report: "b", Location: "y"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[1].RiskScore != 90 {
		t.Errorf("results = %+v", results)
	}
	if !strings.Contains(ts.requests[0].Body, `"reports":[`) {
		t.Errorf("body = %s, want reports array", ts.requests[0].Body)
	}
}

func TestReadReports(t *testing.T) {
	in := `{"report":"first","location":"A"}

{"report":"second","location":"B"}
`
	got, err := readReports(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []reportInput{{"first", "A"}, {"second", "B"}}
	if len(got) != len(want) {
		t.Fatalf("got %d reports, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadReports_Errors(t *testing.T) {
	if _, err := readReports(strings.NewReader("\n\n")); err == nil {
		t.Error("expected error for empty input")
	}

	_, err := readReports(strings.NewReader(`{"report":"ok","location":"A"}` + "\nnot json\n"))
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error = %q, want line number", err.Error())
	}
}

func TestRecommend(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/recommendations": `{"success":true,"recommendations":["One","Two"]}`,
	})

	recs, err := recommend(ctx, ts.client(), "Cairo", threat.TravelerProfile{TravelStyle: "group", Experience: "expert"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[0] != "One" {
		t.Errorf("recs = %v", recs)
	}
	if !strings.Contains(ts.requests[0].Body, `"userProfile":{"travelStyle":"group","experience":"expert"}`) {
		t.Errorf("body = %s", ts.requests[0].Body)
	}
}

func TestStatus_Running(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	resp, err := ts.client().get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
}

func TestStatus_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	_, err := ts.client().get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_PlainErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var v any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream exploded") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorGreen, "test message"); got != "test message" {
		t.Errorf("colorize with noColor=true = %q, want plain text", got)
	}

	noColor = false
	if got := colorize(colorGreen, "test message"); !strings.Contains(got, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", got)
	}
}

func TestPrintAnalysis(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	a := threat.Defaults()
	a.ThreatType = "scam"
	a.RiskScore = 65
	a.Severity = threat.SeverityHigh
	a.RelevantFor = []threat.TravelerProfile{{TravelStyle: "solo", Experience: "beginner"}}
	a.ActionableInsights = []string{"Agree on taxi fares upfront"}

	var buf bytes.Buffer
	printAnalysis(&buf, a)
	out := buf.String()

	for _, want := range []string{"Threat: scam", "Risk: 65/100 (high)", "Relevant for: solo/beginner", "→ Agree on taxi fares upfront"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintRecommendations(t *testing.T) {
	var buf bytes.Buffer
	printRecommendations(&buf, []string{"First", "Second"})
	if buf.String() != "1. First\n2. Second\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4000
	cfg.DeepSeek.APIKey = "sk-secret"

	keys := config.ShowAll(cfg)
	if len(keys) == 0 {
		t.Fatal("expected non-empty keys from ShowAll")
	}

	var port, secret string
	for _, k := range keys {
		switch k.Key {
		case "server.port":
			port = k.Value
		case "deepseek.api_key":
			secret = k.Value
		}
	}
	if port != "4000" {
		t.Errorf("server.port = %q, want 4000", port)
	}
	if secret != "(set)" {
		t.Errorf("deepseek.api_key = %q, want redacted", secret)
	}
}

func TestPrintConfig_ShowsEnvVar(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	var buf bytes.Buffer
	printConfig(&buf, []config.KeyInfo{{Key: "server.port", EnvVar: "THREATPULSE_SERVER_PORT", Value: "3000"}})
	if want := "  server.port = 3000  (THREATPULSE_SERVER_PORT)\n"; buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestHTTPServer_RequestsOutliveSignal(t *testing.T) {
	sigCtx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	reqErr := make(chan error, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		reqErr <- r.Context().Err()
		w.WriteHeader(http.StatusOK)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := newHTTPServer(sigCtx, ln.Addr().String(), handler)
	go srv.Serve(ln)

	respCh := make(chan *http.Response, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			respCh <- nil
			return
		}
		respCh <- resp
	}()

	<-started
	cancel()

	shutdownDone := make(chan error, 1)
	go func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		shutdownDone <- srv.Shutdown(shutdownCtx)
	}()
	close(release)

	resp := <-respCh
	if resp == nil {
		t.Fatal("in-flight request failed during shutdown")
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if err := <-reqErr; err != nil {
		t.Errorf("request context error = %v, want nil after signal", err)
	}
	if err := <-shutdownDone; err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	setupLogging("warn", &buf)
	t.Cleanup(func() { setupLogging("info", &bytes.Buffer{}) })

	slog.Info("hidden")
	slog.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info record emitted at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn record missing: %s", buf.String())
	}
}
