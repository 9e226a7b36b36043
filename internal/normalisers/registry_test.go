package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

type stubNormaliser struct {
	name     string
	mimes    []string
	priority int
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.mimes }
func (s *stubNormaliser) Priority() int                { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{Document: domain.Document{Title: s.name, Origin: raw.URI}}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	r := NewRegistry(
		&stubNormaliser{name: "fallback", mimes: []string{"text/plain", "text/html"}, priority: 5},
		&stubNormaliser{name: "html", mimes: []string{"text/html"}, priority: 50},
	)

	result, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "a", MIMEType: "text/html; charset=utf-8"})
	require.NoError(t, err)
	assert.Equal(t, "html", result.Document.Title)

	result, err = r.Normalise(context.Background(), &domain.RawDocument{URI: "b", MIMEType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Document.Title)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_SupportedMIMETypes(t *testing.T) {
	r := NewRegistry(&stubNormaliser{mimes: []string{"text/plain", "application/pdf"}})
	assert.Equal(t, []string{"application/pdf", "text/plain"}, r.SupportedMIMETypes())
}
