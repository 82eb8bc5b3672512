package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lashkaryadi/get-me-a-tutor/internal/credit"
	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/gateway"
	"github.com/lashkaryadi/get-me-a-tutor/internal/session"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/httpclient"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/logger"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/validator"
)

// backend is a fake marketplace API keyed by "METHOD /path".
type backend struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
	last   map[string]*http.Request
	bodies map[string][]byte
}

func newBackend() *backend {
	return &backend{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
		last:   make(map[string]*http.Request),
		bodies: make(map[string][]byte),
	}
}

func (b *backend) handle(pattern string, h http.HandlerFunc) { b.routes[pattern] = h }

func (b *backend) reply(pattern string, status int, body string) {
	b.handle(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.hits[key]++
	b.last[key] = r
	b.bodies[key] = body
	h := b.routes[key]
	b.mu.Unlock()

	if h == nil {
		http.Error(w, `{"message":"no route"}`, http.StatusNotFound)
		return
	}
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	h(w, r)
}

func (b *backend) multipartForm(t *testing.T, key string) *multipart.Form {
	t.Helper()
	b.mu.Lock()
	raw := b.bodies[key]
	contentType := b.last[key].Header.Get("Content-Type")
	b.mu.Unlock()

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)
	form, err := multipart.NewReader(bytes.NewReader(raw), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	return form
}

func (b *backend) request(key string) *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last[key]
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *backend) jsonBody(t *testing.T, key string) map[string]any {
	t.Helper()
	b.mu.Lock()
	raw := b.bodies[key]
	b.mu.Unlock()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type harness struct {
	client  *Client
	store   *store.MemoryStore
	session *session.Manager
	ledger  *credit.Ledger
}

func setup(t *testing.T, b *backend) *harness {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	s := store.NewMemoryStore()
	log := logger.Discard()
	gw := gateway.New(httpclient.New(httpclient.DefaultConfig()), s, gateway.Config{BaseURL: srv.URL + "/api"}, log)
	sess := session.NewManager(gw, s, log)
	ledger := credit.NewLedger(gw, s, credit.Config{MaxAttempts: 2, BaseDelay: 5 * time.Millisecond}, log)

	return &harness{
		client:  NewClient(gw, s, sess, ledger, log),
		store:   s,
		session: sess,
		ledger:  ledger,
	}
}

func (h *harness) signIn(t *testing.T, role domain.Role) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveCredential(ctx, h.store, domain.Credential{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, store.SaveIdentity(ctx, h.store, domain.User{ID: "u1", Name: "Asha", Role: role}))
}

func value(t *testing.T, s store.Store, key string) (string, bool) {
	t.Helper()
	v, ok, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

func TestLogin_StoresCredentialAndIdentity(t *testing.T) {
	b := newBackend()
	b.reply("POST /auth/login", http.StatusOK,
		`{"success":true,"accessToken":"a1","refreshToken":"r1","user":{"id":"u1","name":"Asha","role":"tutor"}}`)
	b.reply("GET /auth/me", http.StatusOK, `{"success":true,"user":{"id":"u1","role":"tutor","credits":7}}`)
	h := setup(t, b)

	u, err := h.client.Login(context.Background(), Login{Email: "asha@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	access, _ := value(t, h.store, store.KeyAccessToken)
	refresh, _ := value(t, h.store, store.KeyRefreshToken)
	assert.Equal(t, "a1", access)
	assert.Equal(t, "r1", refresh)

	mirrored, err := store.LoadIdentity(context.Background(), h.store)
	require.NoError(t, err)
	require.NotNil(t, mirrored)
	assert.Equal(t, domain.RoleTutor, mirrored.Role)
	assert.Equal(t, "u1", h.session.Identity().ID)
	assert.Equal(t, 7, h.ledger.Balance())

	sent := b.jsonBody(t, "POST /auth/login")
	assert.Equal(t, "asha@example.com", sent["email"])
}

func TestLogin_AcceptsLegacyTokenField(t *testing.T) {
	b := newBackend()
	b.reply("POST /auth/login", http.StatusOK, `{"success":true,"token":"legacy","user":{"id":"u1","role":"parent"}}`)
	b.reply("GET /auth/me", http.StatusOK, `{"credits":0}`)
	h := setup(t, b)

	_, err := h.client.Login(context.Background(), Login{Email: "p@example.com", Password: "pw"})
	require.NoError(t, err)

	access, _ := value(t, h.store, store.KeyAccessToken)
	assert.Equal(t, "legacy", access)
	_, ok := value(t, h.store, store.KeyRefreshToken)
	assert.False(t, ok)
}

func TestLogin_RejectedCredentials(t *testing.T) {
	b := newBackend()
	b.reply("POST /auth/login", http.StatusUnauthorized, `{"success":false,"message":"Invalid credentials"}`)
	h := setup(t, b)

	_, err := h.client.Login(context.Background(), Login{Email: "x@example.com", Password: "bad"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAuthExpired) || errors.Is(err, apperrors.ErrUnauthorized))
	_, ok := value(t, h.store, store.KeyAccessToken)
	assert.False(t, ok)
}

func TestLogin_ValidatesInputBeforeCalling(t *testing.T) {
	b := newBackend()
	h := setup(t, b)

	_, err := h.client.Login(context.Background(), Login{Email: "not-an-email"})
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, b.count("POST /auth/login"))
}

func TestLogout_ClearsEverything(t *testing.T) {
	h := setup(t, newBackend())
	h.signIn(t, domain.RoleTutor)
	require.NoError(t, h.session.SetIdentity(context.Background(), &domain.User{ID: "u1", Role: domain.RoleTutor}))

	require.NoError(t, h.client.Logout(context.Background()))

	for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken, store.KeyLegacyToken, store.KeyUser} {
		_, ok := value(t, h.store, key)
		assert.False(t, ok, key)
	}
	assert.Nil(t, h.session.Identity())
	assert.Zero(t, h.ledger.Balance())
}

func TestVerifyEmail_UsesPendingSignup(t *testing.T) {
	b := newBackend()
	b.reply("POST /auth/verify-email", http.StatusOK, `{"success":true}`)
	h := setup(t, b)
	ctx := context.Background()
	require.NoError(t, h.client.BeginVerification(ctx, "new@example.com", "u9"))

	require.NoError(t, h.client.VerifyEmail(ctx, "", "123456"))

	sent := b.jsonBody(t, "POST /auth/verify-email")
	assert.Equal(t, "new@example.com", sent["email"])
	assert.Equal(t, "123456", sent["otp"])
	_, ok := value(t, h.store, store.KeyTempEmail)
	assert.False(t, ok)
	_, ok = value(t, h.store, store.KeyTempUserID)
	assert.False(t, ok)
}

func TestVerifyEmail_RejectsMalformedCode(t *testing.T) {
	b := newBackend()
	h := setup(t, b)

	for _, otp := range []string{"12345", "1234567", "12a456", ""} {
		err := h.client.VerifyEmail(context.Background(), "a@example.com", otp)
		var verr *validator.ValidationError
		require.ErrorAs(t, err, &verr, otp)
		assert.Contains(t, verr.Fields(), "otp")
	}
	assert.Zero(t, b.count("POST /auth/verify-email"))
}

func TestVerifyEmail_RequiresEmail(t *testing.T) {
	h := setup(t, newBackend())
	err := h.client.VerifyEmail(context.Background(), "", "123456")
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestResendEmailOTP(t *testing.T) {
	b := newBackend()
	b.reply("POST /auth/resend-email-otp", http.StatusOK, `{"success":true}`)
	h := setup(t, b)
	ctx := context.Background()

	err := h.client.ResendEmailOTP(ctx)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	require.NoError(t, h.client.BeginVerification(ctx, "new@example.com", "u9"))
	require.NoError(t, h.client.ResendEmailOTP(ctx))
	assert.Equal(t, "u9", b.jsonBody(t, "POST /auth/resend-email-otp")["userId"])
}

func TestBeginVerification_Validates(t *testing.T) {
	h := setup(t, newBackend())
	ctx := context.Background()

	var verr *validator.ValidationError
	require.ErrorAs(t, h.client.BeginVerification(ctx, "new@example.com", ""), &verr)
	assert.Contains(t, verr.Fields(), "userId")
	require.ErrorAs(t, h.client.BeginVerification(ctx, "not-an-email", "u9"), &verr)
	assert.Contains(t, verr.Fields(), "email")

	require.NoError(t, h.client.BeginVerification(ctx, "", "u9"))
	_, ok := value(t, h.store, store.KeyTempEmail)
	assert.False(t, ok)
	v, ok := value(t, h.store, store.KeyTempUserID)
	assert.True(t, ok)
	assert.Equal(t, "u9", v)
}

func TestListJobs_Filters(t *testing.T) {
	b := newBackend()
	b.reply("GET /jobs/alljobs", http.StatusOK,
		`{"success":true,"results":1,"jobs":[{"_id":"j1","title":"Maths tutor","location":"Pune","jobType":"part-time"}]}`)
	h := setup(t, b)

	jobs, err := h.client.ListJobs(context.Background(), domain.JobFilter{Query: " algebra ", Subject: domain.AllSubjects, Location: "Pune"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].ID)

	q := b.request("GET /jobs/alljobs").URL.Query()
	assert.Equal(t, "algebra", q.Get("q"))
	assert.Equal(t, "Pune", q.Get("location"))
	assert.False(t, q.Has("subject"))
}

func TestGetJob(t *testing.T) {
	b := newBackend()
	b.reply("GET /jobs/j1", http.StatusOK, `{"success":true,"job":{"_id":"j1","title":"Physics"}}`)
	b.reply("GET /jobs/j2", http.StatusOK, `{"success":false,"message":"Job not found"}`)
	b.reply("GET /jobs/j3", http.StatusOK, `{"success":true}`)
	h := setup(t, b)

	job, err := h.client.GetJob(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, "Physics", job.Title)

	_, err = h.client.GetJob(context.Background(), "j3")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = h.client.GetJob(context.Background(), "j2")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, "Job not found", apperrors.UserMessage(err))
}

func TestPostJob_RefreshesBalance(t *testing.T) {
	b := newBackend()
	b.reply("POST /jobs", http.StatusCreated, `{"success":true,"job":{"_id":"j7","title":"Chemistry"}}`)
	b.reply("GET /auth/me", http.StatusOK, `{"credits":4}`)
	h := setup(t, b)
	h.signIn(t, domain.RoleParent)

	job, err := h.client.PostJob(context.Background(), domain.NewJob{
		Title: "Chemistry", Description: "Class 10 board prep", Location: "Delhi", JobType: "part-time",
	})
	require.NoError(t, err)
	assert.Equal(t, "j7", job.ID)
	assert.Equal(t, 4, h.ledger.Balance())
}

func TestPostJob_InsufficientCreditsSurfaced(t *testing.T) {
	b := newBackend()
	b.reply("POST /jobs", http.StatusBadRequest, `{"success":false,"message":"Insufficient credits"}`)
	h := setup(t, b)
	h.signIn(t, domain.RoleParent)

	_, err := h.client.PostJob(context.Background(), domain.NewJob{
		Title: "Chemistry", Description: "d", Location: "Delhi", JobType: "part-time",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, "Insufficient credits", apperrors.UserMessage(err))
	assert.Zero(t, b.count("GET /auth/me"))
}

func TestDeleteJob(t *testing.T) {
	b := newBackend()
	b.reply("DELETE /jobs/j1", http.StatusOK, `{"success":true}`)
	h := setup(t, b)

	require.NoError(t, h.client.DeleteJob(context.Background(), "j1"))
	assert.Equal(t, 1, b.count("DELETE /jobs/j1"))
}

func TestApply_SendsMultipartWithResume(t *testing.T) {
	b := newBackend()
	b.reply("POST /applications/apply", http.StatusOK, `{"success":true,"application":{"_id":"a1","status":"pending"}}`)
	b.reply("GET /auth/me", http.StatusOK, `{"credits":2}`)
	h := setup(t, b)
	h.signIn(t, domain.RoleTutor)

	app, err := h.client.Apply(context.Background(), domain.ApplyRequest{
		JobID:          "j1",
		FullName:       "Asha",
		Email:          "asha@example.com",
		Experience:     "3 years",
		ExpectedSalary: "15000",
		Resume:         strings.NewReader("%PDF"),
		ResumeName:     "cv.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, app.Status)
	assert.Equal(t, 2, h.ledger.Balance())

	form := b.multipartForm(t, "POST /applications/apply")
	assert.Equal(t, "j1", form.Value["jobId"][0])
	assert.Equal(t, "Asha", form.Value["fullName"][0])
	assert.Equal(t, "15000", form.Value["expectedSalary"][0])
	require.Len(t, form.File["resume"], 1)
	assert.Equal(t, "cv.pdf", form.File["resume"][0].Filename)
}

func TestApply_WithoutResume(t *testing.T) {
	b := newBackend()
	b.reply("POST /applications/apply", http.StatusOK, `{"success":true,"application":{"_id":"a2"}}`)
	b.reply("GET /auth/me", http.StatusOK, `{"credits":1}`)
	h := setup(t, b)
	h.signIn(t, domain.RoleTutor)

	_, err := h.client.Apply(context.Background(), domain.ApplyRequest{JobID: "j1", FullName: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)

	form := b.multipartForm(t, "POST /applications/apply")
	assert.Empty(t, form.File["resume"])
	assert.Equal(t, "asha@example.com", form.Value["email"][0])
}

func TestApplicationLists(t *testing.T) {
	b := newBackend()
	body := `{"success":true,"applications":[{"_id":"a1","status":"shortlisted"}]}`
	b.reply("GET /applications/my", http.StatusOK, body)
	b.reply("GET /applications/my-received", http.StatusOK, body)
	b.reply("GET /applications/job/j1", http.StatusOK, body)
	h := setup(t, b)
	ctx := context.Background()

	for name, call := range map[string]func() ([]domain.Application, error){
		"mine":     func() ([]domain.Application, error) { return h.client.MyApplications(ctx) },
		"received": func() ([]domain.Application, error) { return h.client.ReceivedApplications(ctx) },
		"job":      func() ([]domain.Application, error) { return h.client.JobApplications(ctx, "j1") },
	} {
		apps, err := call()
		require.NoError(t, err, name)
		require.Len(t, apps, 1, name)
		assert.Equal(t, domain.StatusShortlisted, apps[0].Status, name)
	}
}

func TestUpdateStatus(t *testing.T) {
	b := newBackend()
	b.reply("PATCH /applications/a1/status", http.StatusOK, `{"success":true}`)
	h := setup(t, b)

	require.NoError(t, h.client.UpdateStatus(context.Background(), "a1", domain.StatusSelected))
	assert.Equal(t, "selected", b.jsonBody(t, "PATCH /applications/a1/status")["status"])

	err := h.client.UpdateStatus(context.Background(), "a1", "hired")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 1, b.count("PATCH /applications/a1/status"))
}

func TestProfiles(t *testing.T) {
	b := newBackend()
	b.reply("GET /profile/teacher/me", http.StatusOK,
		`{"success":true,"profile":{"bio":"Maths","experienceYears":4,"subjects":["Maths"],"classes":[9,10],"city":"Pune","expectedSalary":{"min":12000}}}`)
	b.reply("GET /profile/teacher/profile/t1", http.StatusOK, `{"success":true,"profile":null}`)
	b.reply("GET /profile/public", http.StatusOK, `{"success":true,"tutors":[{"_id":"t1","name":"Ravi","subject":"Physics"}]}`)
	b.reply("POST /profile/teacher", http.StatusOK, `{"success":true}`)
	h := setup(t, b)
	ctx := context.Background()

	p, err := h.client.MyTeacherProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10}, p.Classes)
	assert.Equal(t, 12000, p.ExpectedSalary.Min)

	_, err = h.client.TutorProfile(ctx, "t1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	tutors, err := h.client.PublicTutors(ctx)
	require.NoError(t, err)
	require.Len(t, tutors, 1)
	assert.Equal(t, "Ravi", tutors[0].Name)

	err = h.client.SaveTeacherProfile(ctx, domain.ProfileInput{Bio: "b", Subjects: []string{"Maths"}, City: "Pune", Classes: []int{8}})
	require.NoError(t, err)
	sent := b.jsonBody(t, "POST /profile/teacher")
	assert.Equal(t, []any{float64(8)}, sent["classes"])

	err = h.client.SaveTeacherProfile(ctx, domain.ProfileInput{})
	var verr *validator.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreateOrder(t *testing.T) {
	b := newBackend()
	b.reply("POST /api/payments/create-order", http.StatusOK,
		`{"success":true,"order":{"id":"order_1","amount":39900,"currency":"INR"}}`)
	h := setup(t, b)
	ctx := context.Background()
	plan, err := domain.FindPlan(25)
	require.NoError(t, err)

	_, err = h.client.CreateOrder(ctx, plan)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Zero(t, b.count("POST /api/payments/create-order"))

	h.signIn(t, domain.RoleInstitute)
	order, err := h.client.CreateOrder(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)

	sent := b.jsonBody(t, "POST /api/payments/create-order")
	assert.Equal(t, float64(399), sent["amount"])
	assert.Equal(t, float64(25), sent["credits"])
	assert.Equal(t, "institute", sent["role"])
}

func TestCreateOrder_Declined(t *testing.T) {
	b := newBackend()
	b.reply("POST /api/payments/create-order", http.StatusOK, `{"success":false}`)
	h := setup(t, b)
	h.signIn(t, domain.RoleTutor)

	_, err := h.client.CreateOrder(context.Background(), domain.Plans[0])
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Equal(t, "Failed to create order", apperrors.UserMessage(err))
}

var confirmation = domain.PaymentConfirmation{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}

func TestCompletePurchase(t *testing.T) {
	tests := []struct {
		role     domain.Role
		redirect string
	}{
		{domain.RoleTutor, "/tutor/dashboard"},
		{domain.RoleInstitute, "/institute/dashboard"},
		{domain.RoleParent, "/feed"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			b := newBackend()
			b.reply("POST /api/payments/verify-payment", http.StatusOK, `{"success":true}`)
			b.reply("GET /auth/me", http.StatusOK, `{"user":{"credits":35}}`)
			h := setup(t, b)
			h.signIn(t, tt.role)

			res, err := h.client.CompletePurchase(context.Background(), confirmation)
			require.NoError(t, err)
			assert.Equal(t, 35, res.Balance)
			assert.Equal(t, tt.redirect, res.Redirect)
			assert.Empty(t, res.Warning)

			sent := b.jsonBody(t, "POST /api/payments/verify-payment")
			assert.Equal(t, "order_1", sent["razorpay_order_id"])
			assert.Equal(t, "pay_1", sent["razorpay_payment_id"])
		})
	}
}

func TestCompletePurchase_BalanceReadFailsIsWarning(t *testing.T) {
	b := newBackend()
	b.reply("POST /api/payments/verify-payment", http.StatusOK, `{"success":true}`)
	b.reply("GET /auth/me", http.StatusInternalServerError, `{"message":"boom"}`)
	h := setup(t, b)
	h.signIn(t, domain.RoleTutor)

	res, err := h.client.CompletePurchase(context.Background(), confirmation)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, "/tutor/dashboard", res.Redirect)
	assert.Equal(t, 2, b.count("GET /auth/me"))
}

func TestCompletePurchase_VerificationFailed(t *testing.T) {
	b := newBackend()
	b.reply("POST /api/payments/verify-payment", http.StatusOK, `{"success":false,"message":"Invalid signature"}`)
	h := setup(t, b)
	h.signIn(t, domain.RoleTutor)

	_, err := h.client.CompletePurchase(context.Background(), confirmation)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Equal(t, "Invalid signature", apperrors.UserMessage(err))
	assert.Zero(t, b.count("GET /auth/me"))
}

func TestVerifyPayment_RequiresAllFields(t *testing.T) {
	b := newBackend()
	h := setup(t, b)

	err := h.client.VerifyPayment(context.Background(), domain.PaymentConfirmation{OrderID: "order_1"})
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, b.count("POST /api/payments/verify-payment"))
}
