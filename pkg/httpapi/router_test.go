package httpapi

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mladen4o/ClovaLink/pkg/backend/localdir"
	"github.com/mladen4o/ClovaLink/pkg/cas"
	"github.com/mladen4o/ClovaLink/pkg/catalog/memory"
	corevaultauth "github.com/mladen4o/ClovaLink/pkg/httpapi/auth"
	"github.com/mladen4o/ClovaLink/pkg/orchestrator"
	"github.com/mladen4o/ClovaLink/pkg/scheduler"
	"github.com/mladen4o/ClovaLink/pkg/share"
	"github.com/mladen4o/ClovaLink/pkg/tenantconfig"
)

type testHarness struct {
	handler  http.Handler
	tokenFor func(t *testing.T, userID, tenantID, role string) string
}

func newTestHarness(t *testing.T) testHarness {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	keyPath := filepath.Join(t.TempDir(), "pub.pem")
	require.NoError(t, os.WriteFile(keyPath, pubPEM, 0o600))

	verifier, err := corevaultauth.NewVerifier(keyPath, "corevault")
	require.NoError(t, err)

	be, err := localdir.New(t.TempDir())
	require.NoError(t, err)
	cat := memory.New()
	sched := scheduler.New(scheduler.Config{})
	casStore := cas.New(be, cat, sched, t.TempDir())
	tenants, err := tenantconfig.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { tenants.Close() })

	orch := orchestrator.New(orchestrator.Config{}, cat, cat, be, casStore, sched, tenants, nil, nil)
	shareGW := share.New(cat, cat, orch)

	handler := NewRouter(orch, shareGW, verifier, RouterConfig{SchemaEndpointEnabled: true})

	tokenFor := func(t *testing.T, userID, tenantID, role string) string {
		t.Helper()
		claims := &corevaultauth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "corevault",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserID:   userID,
			TenantID: tenantID,
			Role:     role,
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
		require.NoError(t, err)
		return tok
	}

	return testHarness{handler: handler, tokenFor: tokenFor}
}

func uploadFile(t *testing.T, h testHarness, token, parentPath, name, content string) map[string]any {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("parent_path", parentPath))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealthEndpointIsUnauthenticated(t *testing.T) {
	h := newTestHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/health/", nil)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateFileRequiresAuth(t *testing.T) {
	h := newTestHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/", nil)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUploadThenDownloadRoundTrip(t *testing.T) {
	h := newTestHarness(t)
	token := h.tokenFor(t, "user-1", "tenant-1", "employee")

	uploaded := uploadFile(t, h, token, "", "report.txt", "hello world")
	recordID := uploaded["record_id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+recordID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "hello world", rr.Body.String())
	require.Contains(t, rr.Header().Get("Content-Disposition"), "report.txt")
}

func TestListReturnsUploadedRecord(t *testing.T) {
	h := newTestHarness(t)
	token := h.tokenFor(t, "user-1", "tenant-1", "employee")
	uploadFile(t, h, token, "", "a.txt", "aaa")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	records := out["records"].([]any)
	require.Len(t, records, 1)
}

func TestCreateAndRedeemPublicShare(t *testing.T) {
	h := newTestHarness(t)
	token := h.tokenFor(t, "owner", "tenant-1", "employee")
	uploaded := uploadFile(t, h, token, "", "secret.txt", "top secret")
	recordID := uploaded["record_id"].(string)

	createBody, err := json.Marshal(map[string]any{"record_id": recordID, "is_public": true})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shares/", bytes.NewReader(createBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var shareOut map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &shareOut))
	shareToken := shareOut["token"].(string)

	redeemReq := httptest.NewRequest(http.MethodGet, "/api/v1/shares/redeem/"+shareToken, nil)
	redeemRR := httptest.NewRecorder()
	h.handler.ServeHTTP(redeemRR, redeemReq)
	require.Equal(t, http.StatusOK, redeemRR.Code)
	require.Equal(t, "top secret", redeemRR.Body.String())
}

func TestSchemaEndpointServesJSONSchema(t *testing.T) {
	h := newTestHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schema", nil)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "CoreVault Configuration")
}
