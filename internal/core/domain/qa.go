package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// QACandidate is a generated question/answer pair grounded in one chunk.
// The same shape is persisted for the audited (verified) dataset.
type QACandidate struct {
	Question      string `json:"question"`
	GroundTruth   string `json:"ground_truth"`
	ContextUsed   string `json:"context_used"`
	SourceChunkID string `json:"source_chunk_id"`
	Origin        string `json:"source,omitempty"`
}

// UnmarshalJSON accepts source_chunk_id as a string or as a number, the
// form used by datasets that index chunks by position.
func (c *QACandidate) UnmarshalJSON(data []byte) error {
	type plain QACandidate
	var raw struct {
		plain
		SourceChunkID json.RawMessage `json:"source_chunk_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = QACandidate(raw.plain)

	id := bytes.TrimSpace(raw.SourceChunkID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
		c.SourceChunkID = ""
	case id[0] == '"':
		if err := json.Unmarshal(id, &c.SourceChunkID); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("%w: source_chunk_id %s is neither a string nor a number", ErrParseFailure, id)
		}
		c.SourceChunkID = n.String()
	}
	return nil
}

// Verdict is a judge's structured pass/fail decision.
type Verdict string

// Verdict values.
const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// ParseVerdict normalises a verdict field. Anything other than PASS or FAIL
// (after trimming and upper-casing) is rejected.
func ParseVerdict(s string) (Verdict, error) {
	switch v := Verdict(strings.ToUpper(strings.TrimSpace(s))); v {
	case VerdictPass, VerdictFail:
		return v, nil
	default:
		return "", fmt.Errorf("%w: unknown verdict %q", ErrParseFailure, s)
	}
}

// Passed reports whether the verdict is PASS.
func (v Verdict) Passed() bool {
	return v == VerdictPass
}

// String returns the string representation.
func (v Verdict) String() string {
	return string(v)
}

// Judgement is a decoded judge response.
type Judgement struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason,omitempty"`
}

// Rejection reasons recorded by the auditor.
const (
	RejectContextTooShort = "context too short"
	RejectUngrounded      = "answer not supported by context"
)

// Rejection records why a candidate was dropped by the audit.
type Rejection struct {
	Index     int         `json:"index"`
	Candidate QACandidate `json:"candidate"`
	Reason    string      `json:"reason"`
}

// Err returns the rejection as an error wrapping ErrValidationReject.
func (r Rejection) Err() error {
	return fmt.Errorf("%w: %s", ErrValidationReject, r.Reason)
}

// AuditStats summarises an audit run.
type AuditStats struct {
	Total                 int `json:"total"`
	RejectedShortContext  int `json:"rejected_short_context"`
	RejectedHallucination int `json:"rejected_hallucination"`
	Failed                int `json:"failed"`
	Kept                  int `json:"kept"`
}

// AuditResult is the verified dataset plus the audit bookkeeping.
type AuditResult struct {
	Kept       []QACandidate `json:"kept"`
	Rejections []Rejection   `json:"rejections"`
	Stats      AuditStats    `json:"stats"`
}

// GenerationStats summarises a benchmark generation run.
type GenerationStats struct {
	Sampled int `json:"sampled"`
	Failed  int `json:"failed"`
	Pairs   int `json:"pairs"`
}

// BenchmarkResult is the outcome for a single benchmark question.
type BenchmarkResult struct {
	Question    string  `json:"question"`
	GroundTruth string  `json:"ground_truth"`
	Answer      string  `json:"answer"`
	Verdict     Verdict `json:"verdict"`
	Reason      string  `json:"reason,omitempty"`
}

// BenchmarkReport aggregates a benchmark run.
type BenchmarkReport struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Model      string            `json:"model"`
	K          int               `json:"k"`
	Total      int               `json:"total"`
	Passed     int               `json:"passed"`
	Accuracy   float64           `json:"accuracy"`
	Results    []BenchmarkResult `json:"results"`
}

// Score fills Total, Passed and Accuracy from Results.
// Accuracy is a percentage; an empty run scores 0.
func (r *BenchmarkReport) Score() {
	r.Total = len(r.Results)
	r.Passed = 0
	for i := range r.Results {
		if r.Results[i].Verdict.Passed() {
			r.Passed++
		}
	}
	if r.Total == 0 {
		r.Accuracy = 0
		return
	}
	r.Accuracy = float64(r.Passed) / float64(r.Total) * 100
}
