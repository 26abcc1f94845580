package httptransport

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	authhandler "phonetrack/internal/auth/handler"
	authmetrics "phonetrack/internal/auth/metrics"
	authservice "phonetrack/internal/auth/service"
	userstore "phonetrack/internal/auth/store/user"
	"phonetrack/internal/blob"
	jwttoken "phonetrack/internal/jwt_token"
	"phonetrack/internal/platform/health"
	trackinghandler "phonetrack/internal/tracking/handler"
	trackingmetrics "phonetrack/internal/tracking/metrics"
	trackingservice "phonetrack/internal/tracking/service"
	recordstore "phonetrack/internal/tracking/store/record"
	id "phonetrack/pkg/domain"
	"phonetrack/pkg/platform/middleware/request"
	"phonetrack/pkg/secrets"
)

// RouterSuite drives the assembled router with in-memory backends.
type RouterSuite struct {
	suite.Suite
	server *httptest.Server
	tokens *jwttoken.JWTService
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	s.tokens = jwttoken.NewJWTService("router-test-secret", time.Hour)

	photos := blob.NewMemory("")
	authMetrics := authmetrics.New(reg)
	authSvc := authservice.New(userstore.New(), secrets.NewHasher(bcrypt.MinCost), s.tokens,
		authservice.WithLogger(logger), authservice.WithMetrics(authMetrics))
	trackingSvc := trackingservice.New(recordstore.New(), photos,
		trackingservice.WithLogger(logger), trackingservice.WithMetrics(trackingmetrics.New(reg)))

	router := NewRouter(Deps{
		Logger:         logger,
		Gatherer:       reg,
		LatencyMetrics: request.NewMetrics(reg),
		Health:         health.New("test"),
		Auth:           authhandler.New(authSvc, logger),
		Tracking:       trackinghandler.New(trackingSvc, logger),
		Photos:         blob.NewHandler(photos, logger),
		Verifier:       jwttoken.NewVerifierAdapter(s.tokens),
		GuardMetrics:   authMetrics,
	}, Options{})

	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func (s *RouterSuite) do(method, path, token, contentType string, body io.Reader) (*http.Response, map[string]any) {
	req, err := http.NewRequest(method, s.server.URL+path, body)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	var decoded map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp, decoded
}

func (s *RouterSuite) postJSON(path, token, body string) (*http.Response, map[string]any) {
	return s.do(http.MethodPost, path, token, "application/json", strings.NewReader(body))
}

func (s *RouterSuite) signupAndLogin(email string) (token, userID string) {
	resp, _ := s.postJSON("/signup", "", `{"email":"`+email+`","password":"pw123","name":"A","phone":"555"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, body := s.postJSON("/login", "", `{"email":"`+email+`","password":"pw123"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	return body["token"].(string), user["id"].(string)
}

func (s *RouterSuite) TestConcreteScenario() {
	token, userID := s.signupAndLogin("a@x.com")

	claim, err := s.tokens.Verify(token)
	s.Require().NoError(err)
	s.Equal(userID, claim.UserID.String())

	resp, body := s.postJSON("/tracking/create", token, `{"phone_number":"555-1","description":"d","location":"here"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	created := body["data"].(map[string]any)
	s.Equal(userID, created["user_id"])
	s.Equal("active", created["status"])
	s.Nil(created["photo_url"])

	resp, body = s.do(http.MethodGet, "/tracking/records", token, "", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	records := body["data"].([]any)
	s.Require().Len(records, 1)
	s.Equal(created["id"], records[0].(map[string]any)["id"])
}

func (s *RouterSuite) TestDuplicateSignup() {
	s.signupAndLogin("dup@x.com")

	resp, body := s.postJSON("/signup", "", `{"email":"dup@x.com","password":"other"}`)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal(false, body["success"])
}

func (s *RouterSuite) TestLoginFailuresLookAlike() {
	s.signupAndLogin("b@x.com")

	r1, wrongPw := s.postJSON("/login", "", `{"email":"b@x.com","password":"nope"}`)
	r2, unknown := s.postJSON("/login", "", `{"email":"ghost@x.com","password":"pw123"}`)

	s.Equal(http.StatusUnauthorized, r1.StatusCode)
	s.Equal(http.StatusUnauthorized, r2.StatusCode)
	s.Equal(wrongPw, unknown)
}

func (s *RouterSuite) TestLoginRejectsEveryBadPairAlike() {
	s.signupAndLogin("known@x.com")
	_, reference := s.postJSON("/login", "", `{"email":"nobody@x.com","password":"pw"}`)
	s.Require().Equal("Invalid credentials", reference["message"])

	for _, body := range []string{
		`{"email":"known@x.com","password":""}`,
		`{"email":"not-an-email","password":"pw"}`,
		`{"email":"","password":"pw123"}`,
		`{}`,
	} {
		resp, got := s.postJSON("/login", "", body)
		s.Equal(http.StatusUnauthorized, resp.StatusCode, body)
		s.Equal(reference, got, body)
	}
}

func (s *RouterSuite) TestAccessGuard() {
	resp, body := s.do(http.MethodGet, "/tracking/records", "", "", nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("No token provided", body["message"])

	resp, body = s.do(http.MethodGet, "/tracking/records", "garbage", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("Unauthorized", body["message"])

	foreign := jwttoken.NewJWTService("another-secret", time.Hour)
	token, err := foreign.Issue(testUserID(), "x@x.com")
	s.Require().NoError(err)
	resp, _ = s.do(http.MethodGet, "/tracking/records", token, "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterSuite) TestOwnershipIsolation() {
	alice, _ := s.signupAndLogin("alice@x.com")
	bob, _ := s.signupAndLogin("bob@x.com")

	_, body := s.postJSON("/tracking/create", alice, `{"phone_number":"777","description":"mine"}`)
	recordID := body["data"].(map[string]any)["id"].(string)

	resp, body := s.do(http.MethodGet, "/tracking/records", bob, "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Empty(body["data"])

	resp, _ = s.do(http.MethodPut, "/tracking/update/"+recordID, bob, "application/json", strings.NewReader(`{"status":"stolen"}`))
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/tracking/search/777", bob, "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	found := body["data"].([]any)
	s.Require().Len(found, 1)
	s.Equal("active", found[0].(map[string]any)["status"])

	resp, body = s.do(http.MethodPut, "/tracking/update/"+recordID, alice, "application/json", strings.NewReader(`{"status":"found"}`))
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("found", body["data"].(map[string]any)["status"])
}

func (s *RouterSuite) TestSearchMatchesPhoneWithPercent() {
	token, _ := s.signupAndLogin("pct@x.com")
	resp, _ := s.postJSON("/tracking/create", token, `{"phone_number":"5%41"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/tracking/search/5%2541", token, "", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	found := body["data"].([]any)
	s.Require().Len(found, 1)
	s.Equal("5%41", found[0].(map[string]any)["phone_number"])
}

func (s *RouterSuite) TestPhotoRoundTrip() {
	token, _ := s.signupAndLogin("photo@x.com")
	payload := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("phone_number", "555-2"))
	fw, err := mw.CreateFormFile("photo", "cat.jpg")
	s.Require().NoError(err)
	_, err = fw.Write(payload)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	resp, body := s.do(http.MethodPost, "/tracking/create", token, mw.FormDataContentType(), &buf)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	photoURL := body["data"].(map[string]any)["photo_url"].(string)
	s.Contains(photoURL, "-cat.jpg")

	photo, err := http.Get(s.server.URL + photoURL)
	s.Require().NoError(err)
	defer photo.Body.Close()
	got, err := io.ReadAll(photo.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, photo.StatusCode)
	s.Equal(payload, got)
}

func (s *RouterSuite) TestPlatformRoutes() {
	s.signupAndLogin("m@x.com")

	resp, err := http.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(raw), "phonetrack_users_created_total 1")
	s.Contains(string(raw), "phonetrack_endpoint_latency_seconds")

	resp, body := s.do(http.MethodGet, "/health/ready", "", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ready", body["status"])

	resp, body = s.do(http.MethodGet, "/nope", "", "", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("not_found", body["error"])

	resp, _ = s.do(http.MethodGet, "/health", "", "", nil)
	s.NotEmpty(resp.Header.Get("X-Request-ID"))
}

func TestOversizedJSONIs413(t *testing.T) {
	router := NewRouter(Deps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Auth:   authhandler.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, Options{MaxBodyBytes: 32})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/signup",
		strings.NewReader(`{"email":"`+strings.Repeat("a", 100)+`@x.com","password":"pw"}`)))

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Contains(t, rr.Body.String(), "payload_too_large")
}

func testUserID() id.UserID {
	return id.NewUserID()
}
