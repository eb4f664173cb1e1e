package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"b3-stock-qa/internal/entity"
	"b3-stock-qa/internal/qa/config"
	"b3-stock-qa/pkg/logger"
)

var (
	// ErrIntentTimeout is returned when the NLU subprocess exceeds its
	// deadline and is killed.
	ErrIntentTimeout = errors.New("nlu subprocess timed out")
	// ErrIntentExit is returned when the subprocess exits non-zero.
	ErrIntentExit = errors.New("nlu subprocess failed")
	// ErrIntentMalformed is returned when the subprocess output is not a
	// valid interpretation document.
	ErrIntentMalformed = errors.New("nlu output malformed")
	// ErrIntentUnrecognized is returned when the NLU reports it could not
	// understand the question.
	ErrIntentUnrecognized = errors.New("question not understood")
)

// IntentRepository turns a natural-language question into an interpretation.
type IntentRepository interface {
	Interpret(ctx context.Context, question string) (*entity.Intent, error)
}

type subprocessIntentRepository struct {
	command string
	args    []string
	timeout time.Duration
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewSubprocessIntentRepository creates an IntentRepository that shells out
// to an external NLU command. The question is passed as the final argument
// and the interpretation is read from stdout as JSON. Spawns are
// rate-limited so a burst of questions cannot fork-bomb the host.
func NewSubprocessIntentRepository(cfg config.NLU, log *logger.Logger) IntentRepository {
	return &subprocessIntentRepository{
		command: cfg.Command,
		args:    cfg.Args,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
		log:     log,
	}
}

func (r *subprocessIntentRepository) Interpret(ctx context.Context, question string) (*entity.Intent, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nlu rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := make([]string, 0, len(r.args)+1)
	args = append(args, r.args...)
	args = append(args, question)
	cmd := exec.CommandContext(ctx, r.command, args...)

	// Buffered stdout/stderr make os/exec drain both pipes concurrently,
	// so a chatty process can never block on a full pipe buffer and
	// deadlock against Wait. WaitDelay bounds Wait after the deadline
	// kills the process: an orphaned grandchild holding the pipe write
	// ends would otherwise keep the drain goroutines alive indefinitely.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start: %v", ErrIntentExit, err)
	}

	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		r.log.Warn("nlu subprocess killed on timeout",
			logger.Field("command", r.command), logger.Field("timeout", r.timeout.String()))
		return nil, fmt.Errorf("%w after %s", ErrIntentTimeout, r.timeout)
	}
	if waitErr != nil {
		r.log.Error("nlu subprocess exited non-zero",
			logger.Field("command", r.command), logger.Field("stderr", excerpt(stderr.Bytes())),
			logger.ErrorField(waitErr))
		return nil, fmt.Errorf("%w: %v: %s", ErrIntentExit, waitErr, excerpt(stderr.Bytes()))
	}

	r.log.Debug("nlu subprocess finished",
		logger.Field("command", r.command), logger.Field("elapsed", elapsed.String()))

	return parseIntent(stdout.Bytes())
}

func parseIntent(stdout []byte) (*entity.Intent, error) {
	trimmed := strings.TrimSpace(string(stdout))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty output", ErrIntentMalformed)
	}

	// The NLU reports its own failures in-band as {"erro": "..."}.
	var probe struct {
		Erro string `json:"erro"`
	}
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentMalformed, err)
	}
	if probe.Erro != "" {
		return nil, fmt.Errorf("%w: %s", ErrIntentUnrecognized, probe.Erro)
	}

	var intent entity.Intent
	if err := json.Unmarshal([]byte(trimmed), &intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentMalformed, err)
	}
	if strings.TrimSpace(intent.TemplateID) == "" {
		return nil, fmt.Errorf("%w: missing template_id", ErrIntentMalformed)
	}
	if intent.Placeholders == nil {
		intent.Placeholders = map[string]*string{}
	}
	return &intent, nil
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	s = strings.ReplaceAll(s, "\n", " | ")
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}
