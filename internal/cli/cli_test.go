package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIContext(context.Background(), t, args)
}

func runCLIContext(ctx context.Context, t *testing.T, args []string) ([]byte, []byte, error) {
	cmd := NewRootCmd()
	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	e := cmd.ExecuteContext(ctx)
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// board runs commands against one data dir and decodes the JSON envelope.
type board struct {
	t    *testing.T
	args []string
}

func newBoard(t *testing.T, extra ...string) board {
	t.Helper()
	for _, k := range []string{"TODOBOARD_DIR", "TODOBOARD_BACKEND", "TODOBOARD_REDIS_URL", "TODOBOARD_FORMAT", "TODOBOARD_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return board{t: t, args: append([]string{"--dir", t.TempDir()}, extra...)}
}

func (b board) run(args ...string) map[string]any {
	b.t.Helper()
	stdout, stderr, err := runCLI(b.t, append(append([]string{}, b.args...), args...))
	if err != nil {
		b.t.Fatalf("todoboard %v: %v\nstderr:\n%s", args, err, stderr)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		b.t.Fatalf("decode output of %v: %v\n%s", args, err, stdout)
	}
	if _, ok := env["data"]; !ok {
		b.t.Fatalf("expected data key; got %s", stdout)
	}
	return env
}

func (b board) fail(args ...string) string {
	b.t.Helper()
	_, stderr, err := runCLI(b.t, append(append([]string{}, b.args...), args...))
	if err == nil {
		b.t.Fatalf("expected todoboard %v to fail", args)
	}
	return string(stderr)
}

func dataID(t *testing.T, env map[string]any) string {
	t.Helper()
	id, _ := env["data"].(map[string]any)["id"].(string)
	if id == "" {
		t.Fatalf("expected id in %v", env["data"])
	}
	return id
}

// texts returns the todo texts of one list in visual order.
func (b board) texts(listID string) []string {
	b.t.Helper()
	env := b.run("todos", "ls", "--list", listID)
	var out []string
	items, _ := env["data"].([]any)
	for _, it := range items {
		out = append(out, it.(map[string]any)["text"].(string))
	}
	return out
}

func TestCLI_BoardFlow(t *testing.T) {
	b := newBoard(t)
	b.run("init")

	inbox := dataID(t, b.run("lists", "add", "Inbox"))
	doing := dataID(t, b.run("lists", "add", "Doing"))

	milk := dataID(t, b.run("todos", "add", inbox, "buy", "milk"))
	b.run("todos", "add", inbox, "call mom")
	b.run("todos", "insert-after", milk, "buy eggs")
	if got := strings.Join(b.texts(inbox), "|"); got != "buy milk|buy eggs|call mom" {
		t.Fatalf("unexpected order %s", got)
	}

	b.run("todos", "move", milk, "--to", doing, "--index", "0")
	if got := strings.Join(b.texts(doing), "|"); got != "buy milk" {
		t.Fatalf("expected milk in doing; got %s", got)
	}

	b.run("todos", "toggle-all", inbox)
	env := b.run("todos", "ls", "--list", inbox)
	if r := env["meta"].(map[string]any)["remaining"].(float64); r != 0 {
		t.Fatalf("expected nothing remaining; got %v", r)
	}
	cleared := b.run("todos", "clear-completed", inbox)
	if n := cleared["data"].(map[string]any)["deleted"].(float64); n != 2 {
		t.Fatalf("expected two cleared; got %v", n)
	}

	b.run("lists", "move", doing, "--index", "0")
	lists := b.run("lists", "ls")["data"].(map[string]any)["lists"].([]any)
	if first := lists[0].(map[string]any)["id"]; first != doing {
		t.Fatalf("expected doing first; got %v", first)
	}

	plan := b.run("renumber", "board")["data"].(map[string]any)
	if as, _ := plan["assignments"].([]any); len(as) != 2 {
		t.Fatalf("expected both lists renumbered; got %v", plan)
	}

	b.run("todos", "rm", milk)
	if got := b.texts(doing); len(got) != 0 {
		t.Fatalf("expected empty list; got %v", got)
	}
	b.run("lists", "rename", inbox, "Later")
	b.run("lists", "rm", inbox)
}

func TestCLI_NotFoundGoesToStderr(t *testing.T) {
	b := newBoard(t)
	stderr := b.fail("todos", "toggle", "nope")
	if !strings.Contains(stderr, "todo not found: nope") {
		t.Fatalf("unexpected stderr %q", stderr)
	}
	stderr = b.fail("todos", "add", "missing-list", "x")
	if !strings.Contains(stderr, "list not found: missing-list") {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestCLI_MergeRequiresAutomerge(t *testing.T) {
	b := newBoard(t)
	stderr := b.fail("merge", "whatever.automerge")
	if !strings.Contains(stderr, "requires the automerge backend") {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestCLI_AutomergeMergeFile(t *testing.T) {
	a := newBoard(t, "--backend", "automerge")
	other := newBoard(t, "--backend", "automerge")

	list := dataID(t, a.run("lists", "add", "Shared"))
	if err := copyFile(filepath.Join(a.args[1], "board.automerge"), filepath.Join(other.args[1], "board.automerge")); err != nil {
		t.Fatalf("copy: %v", err)
	}
	other.run("todos", "add", list, "from the other replica")

	env := a.run("merge", filepath.Join(other.args[1], "board.automerge"))
	if changed, _ := env["data"].(map[string]any)["changed"].(bool); !changed {
		t.Fatalf("expected merge to change the board; got %v", env["data"])
	}
	if got := a.texts(list); len(got) != 1 || got[0] != "from the other replica" {
		t.Fatalf("expected merged todo; got %v", got)
	}
}

func TestCLI_EDNOutput(t *testing.T) {
	b := newBoard(t, "--format", "edn")
	stdout, stderr, err := runCLI(t, append(b.args, "lists", "add", "Inbox"))
	if err != nil {
		t.Fatalf("lists add: %v\n%s", err, stderr)
	}
	out := string(stdout)
	if !strings.HasPrefix(out, "{:data {") || !strings.Contains(out, ":created-at") {
		t.Fatalf("unexpected edn output %s", out)
	}
}

func TestCLI_ConfigFileAndFlagPrecedence(t *testing.T) {
	for _, k := range []string{"TODOBOARD_DIR", "TODOBOARD_BACKEND", "TODOBOARD_FORMAT"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("dir = \""+dir+"\"\nbackend = \"automerge\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "init"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), `"backend":"automerge"`) {
		t.Fatalf("expected automerge backend from config; got %s", out.String())
	}

	cmd = NewRootCmd()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "--backend", "sqlite", "init"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), `"backend":"sqlite"`) {
		t.Fatalf("expected flag to override config; got %s", out.String())
	}
}

func TestCLI_WatchPrintsPushedBatches(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()
	b := newBoard(t, "--redis-url", url)
	list := dataID(t, b.run("lists", "add", "Inbox"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	type result struct {
		stdout []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		stdout, _, err := runCLIContext(ctx, t, append(append([]string{}, b.args...), "watch", "--count", "1"))
		done <- result{stdout, err}
	}()

	channel := "todoboard:default"
	for mr.PubSubNumSub(channel)[channel] == 0 {
		select {
		case <-ctx.Done():
			t.Fatalf("watch never subscribed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	b.run("todos", "add", list, "pushed")

	res := <-done
	if res.err != nil {
		t.Fatalf("watch: %v", res.err)
	}
	if !strings.Contains(string(res.stdout), `"text":"pushed"`) {
		t.Fatalf("expected pushed batch in output; got %s", res.stdout)
	}
}

func copyFile(src, dst string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, raw, 0o644)
}
