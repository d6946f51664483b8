package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	identity  models.Identity
	signedIn  bool
	err       error
	calls     int
	returnTos []string
}

func (f *fakeProvider) CurrentIdentity(context.Context) (models.Identity, bool, error) {
	f.calls++
	return f.identity, f.signedIn, f.err
}

func (f *fakeProvider) BeginAuth(_ context.Context, returnTo string) error {
	f.returnTos = append(f.returnTos, returnTo)
	return nil
}

func TestGateAuthenticated(t *testing.T) {
	p := &fakeProvider{identity: models.Identity{UserID: "u1"}, signedIn: true}
	g := NewGate(p, nil)
	require.Equal(t, Unchecked, g.State())

	id, err := g.Enter(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, Authenticated, g.State())
	assert.Empty(t, p.returnTos)
}

func TestGateRedirectsWithoutIdentity(t *testing.T) {
	p := &fakeProvider{}
	q := notify.NewQueue()
	g := NewGate(p, q)

	_, err := g.Enter(context.Background(), "T1")
	require.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Equal(t, Redirecting, g.State())
	assert.Equal(t, []string{"T1"}, p.returnTos)
	assert.Equal(t, "T1", g.ReturnTo())

	msgs := q.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.NotifyWarning, msgs[0].Kind)
}

func TestGateFailsSafeOnProviderError(t *testing.T) {
	p := &fakeProvider{identity: models.Identity{UserID: "u1"}, signedIn: true, err: errors.New("provider down")}
	g := NewGate(p, nil)

	_, err := g.Enter(context.Background(), "T2")
	require.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Equal(t, Redirecting, g.State())
	assert.Equal(t, []string{"T2"}, p.returnTos)
}

func TestGateResetAndReenter(t *testing.T) {
	p := &fakeProvider{}
	g := NewGate(p, nil)
	_, _ = g.Enter(context.Background(), "T1")

	g.Reset()
	assert.Equal(t, Unchecked, g.State())
	assert.Empty(t, g.ReturnTo())

	p.identity, p.signedIn = models.Identity{UserID: "u2"}, true
	_, err := g.Enter(context.Background(), "T1")
	require.NoError(t, err)
	assert.True(t, g.Authenticated())
	assert.Equal(t, 2, p.calls)
}

type memReturns map[string]string

func (m memReturns) SaveReturnTo(_ context.Context, sid, path string) error {
	m[sid] = path
	return nil
}

func (m memReturns) ConsumeReturnTo(_ context.Context, sid string) (string, error) {
	v := m[sid]
	delete(m, sid)
	return v, nil
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	iss := TokenIssuer{Secret: []byte("s3cret"), TTL: time.Hour}
	tok, err := iss.Issue(models.Identity{UserID: "42", Name: "Abebe", Email: "a@example.com", Role: "customer"})
	require.NoError(t, err)

	id, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", id.UserID)
	assert.Equal(t, "customer", id.Role)

	_, err = TokenIssuer{Secret: []byte("other")}.Parse(tok)
	assert.Error(t, err)
}

func TestTokenIssuerExpired(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	iss := TokenIssuer{Secret: []byte("s3cret"), TTL: time.Hour, Now: func() time.Time { return past }}
	tok, err := iss.Issue(models.Identity{UserID: "42"})
	require.NoError(t, err)

	_, err = TokenIssuer{Secret: []byte("s3cret")}.Parse(tok)
	assert.Error(t, err)
}

func TestJWTProvider(t *testing.T) {
	iss := TokenIssuer{Secret: []byte("s3cret")}
	returns := memReturns{}
	p := JWTProvider{Issuer: iss, Returns: returns}
	ctx := WithSessionID(context.Background(), "sess-1")

	_, ok, err := p.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = p.CurrentIdentity(WithToken(ctx, "garbage"))
	assert.Error(t, err)

	tok, err := iss.Issue(models.Identity{UserID: "7"})
	require.NoError(t, err)
	id, ok, err := p.CurrentIdentity(WithToken(ctx, tok))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7", id.UserID)

	require.NoError(t, p.BeginAuth(ctx, "T3"))
	got, _ := returns.ConsumeReturnTo(ctx, "sess-1")
	assert.Equal(t, "T3", got)
	got, _ = returns.ConsumeReturnTo(ctx, "sess-1")
	assert.Empty(t, got)

	assert.Error(t, p.BeginAuth(context.Background(), "T3"))
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/auth?returnUrl=%2Fbooking%2FT1", LoginRedirect("/booking/T1"))
}
