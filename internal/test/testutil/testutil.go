package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/infrastructure/config"
	"hoa-http-service/internal/infrastructure/database"
	"hoa-http-service/internal/infrastructure/mail"
	"hoa-http-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Password is the password of every fixture owner
const Password = "password123"

// Start is the time every test clock begins at
var Start = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

// Clock is a settable clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock pinned at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the pinned time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock at t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Config returns the defaults with test secrets
func Config() *config.Config {
	cfg := config.Default()
	cfg.DBLogLevel = "silent"
	cfg.JWTSecretKey = "test-secret"
	cfg.BootstrapPassword = "bootstrap-pass"
	cfg.AssociationName = "Maple Ridge HOA"
	return cfg
}

// NewTestDB opens a private in-memory sqlite database with every table.
// A single connection keeps the database alive and serializes access.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := Config()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	pool, err := database.NewConnectionPoolWithDialector(sqlite.Open(dsn), cfg)
	require.NoError(t, err)
	require.NoError(t, pool.UpdatePoolConfig(1, 1, 0, 0))
	require.NoError(t, database.AutoMigrate(pool.DB))

	t.Cleanup(func() { _ = pool.Close() })
	return pool.DB
}

// Env bundles a container with the fakes behind it
type Env struct {
	DB        *gorm.DB
	Config    *config.Config
	Clock     *Clock
	Mailer    *mail.RecordingMailer
	Store     *services.MemoryStore
	Container *container.ServiceContainer
}

// NewEnv builds a container over a fresh database. cfgFn may adjust the
// config before the services are built.
func NewEnv(t *testing.T, cfgFn ...func(*config.Config)) *Env {
	t.Helper()

	cfg := Config()
	for _, fn := range cfgFn {
		fn(cfg)
	}

	env := &Env{
		DB:     NewTestDB(t),
		Config: cfg,
		Clock:  NewClock(Start),
		Mailer: mail.NewRecordingMailer(),
	}
	env.Store = services.NewMemoryStore(env.Clock.Now)
	env.Container = container.NewServiceContainer(env.DB, cfg, nil,
		container.WithMailer(env.Mailer),
		container.WithClock(env.Clock.Now),
		container.WithLocker(env.Store),
	)
	return env
}

func (e *Env) JWT() services.InterfaceJWTService {
	return e.Container.GetService("jwt").(services.InterfaceJWTService)
}

func (e *Env) Auth() services.InterfaceAuthService {
	return e.Container.GetService("auth").(services.InterfaceAuthService)
}

func (e *Env) Board() services.InterfaceBoardService {
	return e.Container.GetService("board").(services.InterfaceBoardService)
}

func (e *Env) Owners() services.InterfaceOwnerService {
	return e.Container.GetService("owner").(services.InterfaceOwnerService)
}

func (e *Env) Messages() services.InterfaceMessageService {
	return e.Container.GetService("message").(services.InterfaceMessageService)
}

func (e *Env) Billing() services.InterfaceBillingService {
	return e.Container.GetService("billing").(services.InterfaceBillingService)
}

func (e *Env) Announcements() services.InterfaceAnnouncementService {
	return e.Container.GetService("announcement").(services.InterfaceAnnouncementService)
}

func (e *Env) Documents() services.InterfaceDocumentService {
	return e.Container.GetService("document").(services.InterfaceDocumentService)
}

func (e *Env) Surveys() services.InterfaceSurveyService {
	return e.Container.GetService("survey").(services.InterfaceSurveyService)
}

func (e *Env) Notifier() services.InterfaceNotifier {
	return e.Container.GetService("notifier").(services.InterfaceNotifier)
}

// CreateOwner inserts a registered owner with default preferences
func (e *Env) CreateOwner(t *testing.T, first, email string) *models.Owner {
	t.Helper()

	hash, err := utils.HashPassword(Password)
	require.NoError(t, err)

	owner := models.Owner{
		FirstName:       first,
		LastName:        "Tester",
		Email:           email,
		Password:        hash,
		IsRegistered:    true,
		HasVotingRights: true,
	}
	require.NoError(t, e.DB.Create(&owner).Error)
	pref := models.DefaultNotificationPreference(owner.ID)
	require.NoError(t, e.DB.Create(&pref).Error)
	return &owner
}

// CreateOwnerWithAccount inserts a registered owner holding a property
// bought a year ago, with a zero balance account
func (e *Env) CreateOwnerWithAccount(t *testing.T, first, email string) (*models.Owner, *models.Account) {
	t.Helper()

	owner := e.CreateOwner(t, first, email)
	account := e.AddProperty(t, owner, fmt.Sprintf("%d Maple Ridge Dr", owner.ID*10))
	return owner, account
}

// AddProperty gives owner a property at address and its account
func (e *Env) AddProperty(t *testing.T, owner *models.Owner, address string) *models.Account {
	t.Helper()

	property := models.Property{Address: address}
	require.NoError(t, e.DB.Create(&property).Error)
	ownership := models.OwnerProperty{
		OwnerID:      owner.ID,
		PropertyID:   property.ID,
		PurchaseDate: models.StartOfDay(e.Clock.Now()).AddDate(-1, 0, 0),
	}
	require.NoError(t, e.DB.Create(&ownership).Error)
	account := models.Account{OwnerID: owner.ID, PropertyID: property.ID}
	require.NoError(t, e.DB.Create(&account).Error)
	account.Property = &property
	return &account
}

// CreateBoardMember inserts a registered owner holding a role with every
// capability unless role is given
func (e *Env) CreateBoardMember(t *testing.T, first, email string, role ...*models.BoardMemberRole) *models.Owner {
	t.Helper()

	owner := e.CreateOwner(t, first, email)

	var r *models.BoardMemberRole
	if len(role) > 0 && role[0] != nil {
		r = role[0]
	} else {
		r = e.CreateRole(t, "Director "+email, true, true, true)
	}
	member := models.OwnerBoardMember{
		OwnerID:   owner.ID,
		RoleID:    r.ID,
		StartDate: models.StartOfDay(e.Clock.Now()).AddDate(0, 0, -30),
	}
	require.NoError(t, e.DB.Create(&member).Error)
	return owner
}

// CreateRole inserts a board member role
func (e *Env) CreateRole(t *testing.T, name string, fines, rates, members bool) *models.BoardMemberRole {
	t.Helper()

	role := models.BoardMemberRole{
		Name:             name,
		CanAssessFines:   fines,
		CanChangeRates:   rates,
		CanChangeMembers: members,
	}
	require.NoError(t, e.DB.Create(&role).Error)
	return &role
}

// CreateViolationType inserts an active violation type
func (e *Env) CreateViolationType(t *testing.T, name string, rateCents int64) *models.ViolationType {
	t.Helper()

	vt := models.ViolationType{Name: name, Description: name + " violation", RateCents: rateCents, Active: true}
	require.NoError(t, e.DB.Create(&vt).Error)
	return &vt
}

// CreateAssessmentRate inserts an assessment rate
func (e *Env) CreateAssessmentRate(t *testing.T, year int, amountCents int64, yearly bool) *models.AssessmentRate {
	t.Helper()

	rate := models.AssessmentRate{
		Year:        year,
		Description: fmt.Sprintf("%d dues", year),
		AmountCents: amountCents,
		IsYearly:    yearly,
	}
	require.NoError(t, e.DB.Create(&rate).Error)
	return &rate
}

// Token signs a token for owner at the current clock
func (e *Env) Token(t *testing.T, owner *models.Owner, role string) string {
	t.Helper()

	token, _, err := e.JWT().GenerateToken(owner.ID, role, owner.IsTemporaryPassword)
	require.NoError(t, err)
	return token
}

// Reload reads the row of dest again
func (e *Env) Reload(t *testing.T, dest interface{}, id uint) {
	t.Helper()
	require.NoError(t, e.DB.First(dest, id).Error)
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// Envelope is the decoded response body
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Decode parses the response envelope of w
func Decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// DecodeData parses the data of the response envelope of w into dest
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) Envelope {
	t.Helper()

	env := Decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, dest), string(env.Data))
	return env
}
