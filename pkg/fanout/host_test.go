package fanout

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/pct"
)

// fakeHost is an in-memory Host recording every call.
type fakeHost struct {
	mu sync.Mutex

	statuses    map[string]pct.Status
	statusErr   map[string]error
	pushErrs    map[string][]error // consumed one per attempt
	exitCodes   map[string]int     // payload exit code per container
	outputs     map[string]string  // printed by the payload per container
	cleanupCode int
	blockExec   bool // payload exec waits for the context

	pushes []string
	execs  map[string][][]string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		statuses:  make(map[string]pct.Status),
		statusErr: make(map[string]error),
		pushErrs:  make(map[string][]error),
		exitCodes: make(map[string]int),
		outputs:   make(map[string]string),
		execs:     make(map[string][][]string),
	}
}

func (h *fakeHost) running(ids ...string) *fakeHost {
	for _, id := range ids {
		h.statuses[id] = pct.StatusRunning
	}
	return h
}

func (h *fakeHost) Status(_ context.Context, id string) (pct.Status, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.statusErr[id]; err != nil {
		return pct.StatusUnknown, err
	}
	if s, ok := h.statuses[id]; ok {
		return s, nil
	}
	return pct.StatusStopped, nil
}

func (h *fakeHost) Push(_ context.Context, id, _, _ string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushes = append(h.pushes, id)
	if errs := h.pushErrs[id]; len(errs) > 0 {
		h.pushErrs[id] = errs[1:]
		return errs[0]
	}
	return nil
}

func (h *fakeHost) Exec(ctx context.Context, id string, out io.Writer, argv ...string) (int, error) {
	h.mu.Lock()
	h.execs[id] = append(h.execs[id], argv)
	block := h.blockExec
	code := h.exitCodes[id]
	cleanup := h.cleanupCode
	output := h.outputs[id]
	h.mu.Unlock()

	switch argv[0] {
	case "chmod":
		return 0, nil
	case "rm":
		return cleanup, nil
	}

	if block {
		<-ctx.Done()
		return -1, ctx.Err()
	}
	if output != "" && out != nil {
		_, _ = io.WriteString(out, output)
	}
	return code, nil
}

func (h *fakeHost) pushCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pushes)
}

func (h *fakeHost) execsFor(id string) [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.execs[id]
}

func (h *fakeHost) totalExecs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, calls := range h.execs {
		n += len(calls)
	}
	return n
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestRunner(host Host, opts Options) *Runner {
	if opts.Payload == "" {
		opts.Payload = "/var/lib/lxcrun/operations/update.sh"
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	r := NewRunner(host, opts)
	r.SetLogger(quietLogger())
	return r
}
