package promo

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	rules      map[string]*Rule
	findErr    error
	incErr     error
	increments []string
}

func (m *mockRepo) FindByCode(_ context.Context, code string) (*Rule, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	rule, ok := m.rules[code]
	if !ok {
		return nil, ErrUnknownCode
	}
	r := *rule
	return &r, nil
}

func (m *mockRepo) IncrementUses(_ context.Context, code string) error {
	if m.incErr != nil {
		return m.incErr
	}
	m.increments = append(m.increments, code)
	return nil
}

func newValidator(repo *mockRepo, now time.Time) *RepoValidator {
	v := NewRepoValidator(repo)
	v.now = func() time.Time { return now }
	return v
}

func TestValidate_Success(t *testing.T) {
	repo := &mockRepo{rules: map[string]*Rule{
		"TEN": {Code: "TEN", Type: TypePercentage, Value: d("10"), Description: "10% off"},
	}}
	v := newValidator(repo, time.Now())

	got, err := v.Validate(context.Background(), "TEN", testItems())
	require.NoError(t, err)

	assert.True(t, d("4.55").Equal(got.Amount))
	assert.Equal(t, []string{"TEN"}, repo.increments)
}

func TestValidate_UnknownCode(t *testing.T) {
	v := newValidator(&mockRepo{rules: map[string]*Rule{}}, time.Now())

	_, err := v.Validate(context.Background(), "NOPE", testItems())
	require.ErrorIs(t, err, ErrUnknownCode)
}

func TestValidate_NotYetValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	from := now.Add(24 * time.Hour)
	repo := &mockRepo{rules: map[string]*Rule{
		"SOON": {Code: "SOON", Type: TypeFixed, Value: d("5"), ValidFrom: &from},
	}}
	v := newValidator(repo, now)

	_, err := v.Validate(context.Background(), "SOON", testItems())
	require.ErrorIs(t, err, ErrExpired)
	assert.Empty(t, repo.increments)
}

func TestValidate_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	until := now.Add(-time.Hour)
	repo := &mockRepo{rules: map[string]*Rule{
		"GONE": {Code: "GONE", Type: TypeFixed, Value: d("5"), ValidUntil: &until},
	}}
	v := newValidator(repo, now)

	_, err := v.Validate(context.Background(), "GONE", testItems())
	require.ErrorIs(t, err, ErrExpired)
}

func TestValidate_UsageLimitReached(t *testing.T) {
	repo := &mockRepo{rules: map[string]*Rule{
		"RARE": {Code: "RARE", Type: TypeFixed, Value: d("5"), MaxUses: 3, Uses: 3},
	}}
	v := newValidator(repo, time.Now())

	_, err := v.Validate(context.Background(), "RARE", testItems())
	require.ErrorIs(t, err, ErrUsageLimitReached)
}

func TestValidate_RepoLookupError(t *testing.T) {
	repo := &mockRepo{findErr: errors.New("db down")}
	v := newValidator(repo, time.Now())

	_, err := v.Validate(context.Background(), "TEN", testItems())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup promo code")
}

func TestValidate_IncrementError(t *testing.T) {
	repo := &mockRepo{
		rules: map[string]*Rule{
			"TEN": {Code: "TEN", Type: TypePercentage, Value: d("10")},
		},
		incErr: errors.New("db down"),
	}
	v := newValidator(repo, time.Now())

	_, err := v.Validate(context.Background(), "TEN", testItems())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "increment promo uses")
}
