package oidc

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	testClientID     = "test-client-id.apps.googleusercontent.com"
	testClientSecret = "test-client-secret"
	testRedirectURI  = "http://localhost:5055/auth/google/callback"
)

// signingKey is an RSA key published under a kid.
type signingKey struct {
	kid     string
	private jwk.Key
	public  jwk.Key
}

func newSigningKey(t *testing.T, kid string) *signingKey {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	private, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("failed to wrap RSA key: %v", err)
	}
	if err := private.Set(jwk.KeyIDKey, kid); err != nil {
		t.Fatalf("failed to set kid: %v", err)
	}
	if err := private.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		t.Fatalf("failed to set alg: %v", err)
	}
	public, err := jwk.PublicKeyOf(private)
	if err != nil {
		t.Fatalf("failed to derive public key: %v", err)
	}
	if err := public.Set(jwk.KeyIDKey, kid); err != nil {
		t.Fatalf("failed to set public kid: %v", err)
	}
	return &signingKey{kid: kid, private: private, public: public}
}

// idTokenClaims describes an ID token to be signed by the fake provider.
type idTokenClaims struct {
	issuer   string
	audience string
	subject  string
	email    string
	expires  time.Time
}

func defaultIDTokenClaims(email string) idTokenClaims {
	return idTokenClaims{
		issuer:   "https://accounts.google.com",
		audience: testClientID,
		subject:  "1234567890",
		email:    email,
		expires:  time.Now().Add(time.Hour),
	}
}

// sign produces a compact RS256 ID token carrying the key's kid.
func (k *signingKey) sign(t *testing.T, c idTokenClaims) string {
	t.Helper()

	tok := jwt.New()
	mustSet := func(name string, value any) {
		if err := tok.Set(name, value); err != nil {
			t.Fatalf("failed to set %s: %v", name, err)
		}
	}
	mustSet(jwt.IssuerKey, c.issuer)
	mustSet(jwt.AudienceKey, c.audience)
	mustSet(jwt.SubjectKey, c.subject)
	mustSet(jwt.IssuedAtKey, time.Now().Add(-time.Minute))
	mustSet(jwt.ExpirationKey, c.expires)
	if c.email != "" {
		mustSet("email", c.email)
		mustSet("email_verified", true)
	}

	hdrs := jws.NewHeaders()
	if err := hdrs.Set(jws.KeyIDKey, k.kid); err != nil {
		t.Fatalf("failed to set kid header: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, k.private, jws.WithProtectedHeaders(hdrs)))
	if err != nil {
		t.Fatalf("failed to sign ID token: %v", err)
	}
	return string(signed)
}

// fakeGoogle serves a token endpoint and a JWKS endpoint.
type fakeGoogle struct {
	server *httptest.Server

	mu          sync.Mutex
	keys        []*signingKey
	idToken     string
	tokenStatus int
	omitIDToken bool
	jwksStatus  int
	lastForm    url.Values

	tokenHits atomic.Int32
	jwksHits  atomic.Int32
}

func newFakeGoogle(t *testing.T, keys ...*signingKey) *fakeGoogle {
	t.Helper()

	f := &fakeGoogle{keys: keys, tokenStatus: http.StatusOK, jwksStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", f.handleToken)
	mux.HandleFunc("/certs", f.handleJWKS)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGoogle) tokenURL() string { return f.server.URL + "/token" }
func (f *fakeGoogle) jwksURL() string  { return f.server.URL + "/certs" }

func (f *fakeGoogle) setIDToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idToken = token
}

func (f *fakeGoogle) setTokenStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenStatus = status
}

func (f *fakeGoogle) setOmitIDToken(omit bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.omitIDToken = omit
}

func (f *fakeGoogle) setJWKSStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jwksStatus = status
}

func (f *fakeGoogle) setKeys(keys ...*signingKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = keys
}

func (f *fakeGoogle) form() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

func (f *fakeGoogle) handleToken(w http.ResponseWriter, r *http.Request) {
	f.tokenHits.Add(1)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.lastForm = r.PostForm
	status, idToken, omit := f.tokenStatus, f.idToken, f.omitIDToken
	f.mu.Unlock()

	if status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}

	body := map[string]any{
		"access_token": "ya29.fake",
		"token_type":   "Bearer",
		"expires_in":   3599,
	}
	if !omit {
		body["id_token"] = idToken
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeGoogle) handleJWKS(w http.ResponseWriter, r *http.Request) {
	f.jwksHits.Add(1)

	f.mu.Lock()
	status, keys := f.jwksStatus, f.keys
	f.mu.Unlock()

	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	set := jwk.NewSet()
	for _, k := range keys {
		if err := set.AddKey(k.public); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(set)
}
