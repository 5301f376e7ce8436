package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/metrics"
	"github.com/aretw0/turing/pkg/adapters/memory"
	turinghttp "github.com/aretw0/turing/pkg/adapters/http"
	"github.com/aretw0/turing/pkg/command"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loopProgram = "memsize 5\n+ $ 0 B 0 >\n+ B 0 $ 0 <\n"

func newServer(t *testing.T, opts ...turinghttp.Option) (*httptest.Server, *turing.Engine) {
	t.Helper()
	eng, err := turing.New(turing.WithMemorySize(5))
	require.NoError(t, err)
	srv := httptest.NewServer(turinghttp.NewHandler(eng, opts...))
	t.Cleanup(srv.Close)
	return srv, eng
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_ExecStepStatus(t *testing.T) {
	srv, _ := newServer(t)

	var exec turinghttp.ExecResponse
	code := do(t, srv, http.MethodPost, "/exec", `{"line":"+ $ 0 A 1 >"}`, &exec)
	require.Equal(t, http.StatusOK, code)
	code = do(t, srv, http.MethodPost, "/exec", `{"line":"+ A - ! 1 >"}`, &exec)
	require.Equal(t, http.StatusOK, code)

	var step turinghttp.OutcomeResponse
	code = do(t, srv, http.MethodPost, "/step", `{"n":2}`, &step)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "halted", step.Outcome)
	assert.Equal(t, "00110", step.Status.Tape)
	assert.Equal(t, 4, step.Status.Head)
	assert.Equal(t, 2, step.Status.Steps)

	code = do(t, srv, http.MethodPost, "/step", "", &step)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, step.Error, domain.ErrMachineHalted.Error())

	var status turinghttp.Status
	code = do(t, srv, http.MethodPost, "/reset", "", &status)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StatusReady, status.Status)
	assert.Equal(t, "00<0>00", status.Window)

	code = do(t, srv, http.MethodGet, "/status", "", &status)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "$", status.State)
	assert.Equal(t, domain.Symbol('0'), status.InitialSymbol)
}

func TestServer_ExecOutputAndErrors(t *testing.T) {
	srv, _ := newServer(t)

	var exec turinghttp.ExecResponse
	code := do(t, srv, http.MethodPost, "/exec", `{"line":"echo hi"}`, &exec)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hi\n", exec.Output)

	code = do(t, srv, http.MethodPost, "/exec", `{"line":"nope"}`, &exec)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "command not found: nope", exec.Error)

	code = do(t, srv, http.MethodPost, "/exec", `{"line":"quit"}`, &exec)
	assert.Equal(t, http.StatusForbidden, code)

	var errResp turinghttp.ErrorResponse
	code = do(t, srv, http.MethodPost, "/exec", `not json`, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, errResp.Error, "invalid request body")
}

func TestServer_ExecRefusesFileIO(t *testing.T) {
	srv, eng := newServer(t)
	victim := filepath.Join(t.TempDir(), "important.txt")
	require.NoError(t, os.WriteFile(victim, []byte("precious data\n"), 0644))

	for _, line := range []string{"save " + victim, "load " + victim} {
		t.Run(strings.Fields(line)[0], func(t *testing.T) {
			body, err := json.Marshal(turinghttp.ExecRequest{Line: line})
			require.NoError(t, err)

			var exec turinghttp.ExecResponse
			code := do(t, srv, http.MethodPost, "/exec", string(body), &exec)
			assert.Equal(t, http.StatusForbidden, code)
			assert.Contains(t, exec.Error, command.ErrFileIODisabled.Error())
		})
	}

	data, err := os.ReadFile(victim)
	require.NoError(t, err)
	assert.Equal(t, "precious data\n", string(data))
	assert.Empty(t, eng.Instructions())
}

func TestServer_CORS(t *testing.T) {
	preflight := func(t *testing.T, srv *httptest.Server, origin string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/exec", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	t.Run("No Origin Configured", func(t *testing.T) {
		srv, _ := newServer(t)
		resp := preflight(t, srv, "https://evil.example")
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("Configured Origin", func(t *testing.T) {
		srv, _ := newServer(t, turinghttp.WithAllowedOrigin("http://localhost:3000"))

		resp := preflight(t, srv, "http://localhost:3000")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

		resp = preflight(t, srv, "https://evil.example")
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestServer_StepTimeout(t *testing.T) {
	srv, eng := newServer(t, turinghttp.WithMaxRunTimeout(20*time.Millisecond))
	require.NoError(t, eng.ReadProgram(strings.NewReader(loopProgram)))

	var step turinghttp.OutcomeResponse
	code := do(t, srv, http.MethodPost, "/step", `{"n":2000000000}`, &step)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled", step.Outcome)
	assert.False(t, step.Status.Halted)
	assert.Less(t, step.Status.Steps, 2000000000)
}

func TestServer_Checkpoints(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	srv, _ := newServer(t, turinghttp.WithInterpreterOptions(command.WithSessions(mgr)))

	var exec turinghttp.ExecResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/exec", `{"line":"checkpoint c1"}`, &exec))
	assert.Equal(t, "Checkpoint c1 saved\n", exec.Output)

	code := do(t, srv, http.MethodPost, "/exec", `{"line":"restore c2"}`, &exec)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_RunTimeout(t *testing.T) {
	srv, eng := newServer(t)
	require.NoError(t, eng.ReadProgram(strings.NewReader(loopProgram)))

	var run turinghttp.OutcomeResponse
	code := do(t, srv, http.MethodPost, "/run", `{"timeout_ms":20}`, &run)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled", run.Outcome)
	assert.Positive(t, run.Status.Steps)
	assert.False(t, run.Status.Halted)
}

func TestServer_RunErrors(t *testing.T) {
	srv, eng := newServer(t)

	var run turinghttp.OutcomeResponse
	code := do(t, srv, http.MethodPost, "/run", "", &run)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, run.Error, domain.ErrEmptyProgram.Error())

	require.NoError(t, eng.ReadProgram(strings.NewReader("memsize 3\n+ $ - $ 1 >\n")))
	code = do(t, srv, http.MethodPost, "/run", `{}`, &run)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "halted", run.Outcome)
	assert.Equal(t, "011", run.Status.Tape)
}

func TestServer_Program(t *testing.T) {
	srv, _ := newServer(t)

	var status turinghttp.Status
	code := do(t, srv, http.MethodPut, "/program", "memsize 7\ninitsymbol _\n+ $ _ ! 1 <\n", &status)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 7, status.MemorySize)
	assert.Equal(t, "_______", status.Tape)

	var prog turinghttp.ProgramResponse
	code = do(t, srv, http.MethodGet, "/program", "", &prog)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, prog.Instructions, 1)
	assert.Equal(t, "$ _ ! 1 <", prog.Instructions[0].String())
	assert.Equal(t, []string{"   1: => START ($, _) -> (!, 1, <)"}, prog.Listing)

	resp, err := srv.Client().Get(srv.URL + "/program/file")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "; machine program output\n"+
		"memsize 7\n"+
		"initsymbol _\n"+
		"; transition function\n"+
		"+ $ _ ! 1 <\n"+
		"; end of file\n", string(body))

	var errResp turinghttp.ErrorResponse
	code = do(t, srv, http.MethodPut, "/program", "+ $ _ ! 1 <\nbogus\n+ $ 0\n", &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Len(t, errResp.Lines, 2)
}

func TestServer_Graph(t *testing.T) {
	srv, eng := newServer(t)
	require.NoError(t, eng.ReadProgram(strings.NewReader("+ $ 0 ! 1 >\n")))

	resp, err := srv.Client().Get(srv.URL + "/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "stateDiagram-v2\n"))
	assert.Contains(t, string(body), "class s1 current")
}

func TestServer_HealthInfo(t *testing.T) {
	srv, _ := newServer(t)

	var health map[string]string
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "", &health))
	assert.Equal(t, "ok", health["status"])

	var info map[string]string
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/info", "", &info))
	assert.Equal(t, strings.TrimSpace(turing.Version), info["version"])
}

func TestServer_Metrics(t *testing.T) {
	c := metrics.New()
	eng, err := turing.New(turing.WithMemorySize(5), turing.WithLifecycleHooks(c.Hooks()))
	require.NoError(t, err)
	require.NoError(t, eng.ReadProgram(strings.NewReader("+ $ 0 ! 1 >\n")))

	srv := httptest.NewServer(turinghttp.NewHandler(eng, turinghttp.WithMetrics(c)))
	defer srv.Close()

	var run turinghttp.OutcomeResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/run", "", &run))

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `turing_halts_total{reason="halt_state"} 1`)
	assert.Contains(t, string(body), `turing_run_duration_seconds_count{outcome="halted"} 1`)
}

func TestServer_Events(t *testing.T) {
	streams := turinghttp.NewStreamManager(nil)
	eng, err := turing.New(turing.WithMemorySize(5), turing.WithLifecycleHooks(streams.Hooks()))
	require.NoError(t, err)
	require.NoError(t, eng.ReadProgram(strings.NewReader("+ $ 0 ! 1 >\n")))

	srv := httptest.NewServer(turinghttp.NewHandler(eng, turinghttp.WithStreams(streams)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	var run turinghttp.OutcomeResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/step", "", &run))

	var data []string
	for len(data) < 2 && lines.Scan() {
		if msg, ok := strings.CutPrefix(lines.Text(), "data: "); ok && msg != "connected" {
			data = append(data, msg)
		}
	}
	require.Len(t, data, 2)
	assert.Contains(t, data[0], `"type":"step"`)
	assert.Contains(t, data[1], `"reason":"halt_state"`)
}
