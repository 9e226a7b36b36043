package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation: files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are an assistant for the Norwegian Directorate of Immigration (UDI).
Answer the question using ONLY the context below. Do not use outside knowledge.
If the context does not contain the answer, reply exactly with:
%s

Context:
%s

Question: %s
Answer:`,

	driven.PromptGenerateQA: `You are simulating applicants who ask an immigration chatbot for help.
Write %d question-answer pairs that an immigrant, student or worker would realistically ask,
each answerable only from the context below.

Rules for questions:
1. DO NOT ask "What is..." or "Define..." questions.
2. DO ask "Can I...", "If I am...", "Do I need..." or "What happens if..." questions.
3. Frame each question as a personal scenario, e.g. "I am a student, can I work?".
4. When the context states a rule, ask about following it or breaking it.

Rules for answers:
1. The answer must be factually correct based ONLY on the context.
2. Keep the answer helpful and specific.

Reply with a single JSON object and nothing else:
{"qa_pairs": [{"question": "...", "answer": "..."}]}

Context:
%s`,

	driven.PromptAuditGrounding: `You are a strict fact checker.
Decide whether the answer is fully supported by the context. Any claim that is not stated in
the context, or contradicts it, means the answer fails.

Context:
%s

Question: %s
Answer: %s

Reply with a single JSON object and nothing else:
{"verdict": "PASS" or "FAIL", "reason": "one sentence"}`,

	driven.PromptBenchmarkJudge: `You are a strict exam grader for a question-answering system.
Compare the candidate answer to the ground truth.

Rules:
1. If the candidate says it does not know, for example "%s" or similar wording, it FAILS
   unless the ground truth is also a refusal or says the information is not available.
2. Otherwise the candidate PASSES only if it conveys the same factual meaning as the ground
   truth. Extra detail is fine if it does not contradict the ground truth.

Question: %s
Ground truth: %s
Candidate: %s

Reply with a single JSON object and nothing else:
{"verdict": "PASS" or "FAIL", "reason": "one sentence"}`,

	driven.PromptJSONCorrection: `Your previous reply could not be used: %s
Reply again with only the corrected JSON object, no prose and no code fences.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.udirag/prompts/.
//
// The constructor does not perform any I/O. Directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".udirag", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check so concurrent loads agree on one value.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Watch reloads the cache whenever a prompt file changes, until ctx is done.
// It is used by long-running commands (serve, mcp serve) so edits apply
// without a restart. Watch blocks; run it in its own goroutine.
func (s *PromptStore) Watch(ctx context.Context) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.promptDir); err != nil {
		return fmt.Errorf("watch prompt directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isPromptChange(event) {
				continue
			}
			logger.Debug("Prompt file changed (%s), reloading", filepath.Base(event.Name))
			s.Reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Prompt watcher error: %v", err)
		}
	}
}

// isPromptChange reports whether an event touches a .txt prompt file.
func isPromptChange(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != ".txt" {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Existing files are user edits and are never overwritten.
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# udirag Prompts

This directory contains the prompts sent to language models.

## Files

- ` + "`answer_system.txt`" + ` - Context-only answering (refusal, context, question)
- ` + "`generate_qa.txt`" + ` - Benchmark question generation (pair count, context)
- ` + "`audit_grounding.txt`" + ` - Grounding audit (context, question, answer)
- ` + "`benchmark_judge.txt`" + ` - Answer grading (refusal, question, ground truth, candidate)
- ` + "`json_correction.txt`" + ` - Repair request for invalid JSON replies (error)

## Customisation

Edit any file to change model behaviour. One-shot commands pick up changes on
the next run; ` + "`udirag serve`" + ` and ` + "`udirag mcp serve`" + ` reload them as soon as
the file is saved.

## Format Placeholders

Prompts use Go fmt placeholders, filled in the order listed above:
- ` + "`%s`" + ` - String
- ` + "`%d`" + ` - Integer

Keep every placeholder, in the same order, when customising a prompt. The
generation, audit and judge prompts must still ask for the JSON shapes shown
in the defaults.
`
	return os.WriteFile(path, []byte(content), 0600)
}
