package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/civitrack/apiserver/internal/handlers"
	"github.com/civitrack/apiserver/internal/services"
	"github.com/civitrack/apiserver/internal/store"
	"github.com/civitrack/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// env wires the full route tree over in-memory repositories, mirroring
// the server's mounting.
type env struct {
	t           *testing.T
	router      chi.Router
	users       *memUsers
	complaints  *memComplaints
	departments *memDepartments
}

func newEnv(t *testing.T) *env {
	t.Helper()

	users := newMemUsers()
	complaints := newMemComplaints()
	departments := newMemDepartments()

	userService := services.NewUserService(users)
	complaintService := services.NewComplaintService(complaints, users, nil, nil)
	departmentService := services.NewDepartmentService(departments)
	reportService := services.NewReportService(newMemReports(complaints, departments))

	auth := handlers.RequireAuth(testSecret)

	router := chi.NewRouter()
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, testSecret, 0)
	})
	router.Route("/complaints", func(r chi.Router) {
		handlers.ComplaintRouter(r, complaintService, userService, auth)
	})
	router.Route("/departments", func(r chi.Router) {
		handlers.DepartmentRouter(r, departmentService, userService, auth)
	})
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, complaintService, userService, reportService, auth)
	})

	return &env{
		t:           t,
		router:      router,
		users:       users,
		complaints:  complaints,
		departments: departments,
	}
}

// seedUser creates an account directly in the repository with a known
// password.
func (e *env) seedUser(name, email, password string, role types.Role) types.User {
	e.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(e.t, err)
	user, err := e.users.Create(context.Background(), types.User{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: string(hashed),
	})
	require.NoError(e.t, err)
	return user
}

func (e *env) seedDepartment(name string) types.Department {
	e.t.Helper()
	dept, err := e.departments.Create(context.Background(), types.Department{Name: name})
	require.NoError(e.t, err)
	return dept
}

// tokenFor signs a bearer token for the user the way the auth handler
// does.
func (e *env) tokenFor(user types.User) string {
	e.t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(user.ID),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(e.t, err)
	return token
}

// do performs a JSON request against the route tree.
func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// lodgeForm performs a multipart complaint submission.
func (e *env) lodgeForm(token string, fields map[string]string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(e.t, writer.WriteField(key, value))
	}
	require.NoError(e.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/complaints/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&value))
	return value
}

// memUsers is an in-memory services.UserRepository.
type memUsers struct {
	mu   sync.Mutex
	seq  int
	byID map[int]types.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int]types.User)}
}

func (m *memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, user.Email) {
			return types.User{}, store.ErrDuplicate
		}
	}
	m.seq++
	user.ID = m.seq
	m.byID[user.ID] = user
	return user, nil
}

func (m *memUsers) List(_ context.Context, role types.Role) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []types.User
	for _, user := range m.byID {
		if role == "" || user.Role == role {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *memUsers) GetRefs(_ context.Context, ids []int) (map[int]types.UserRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make(map[int]types.UserRef, len(ids))
	for _, id := range ids {
		if user, ok := m.byID[id]; ok {
			refs[id] = types.UserRef{ID: user.ID, Name: user.Name, Role: user.Role}
		}
	}
	return refs, nil
}

// memComplaints is an in-memory services.ComplaintRepository.
type memComplaints struct {
	mu   sync.Mutex
	seq  int
	byID map[int]types.Complaint
}

func newMemComplaints() *memComplaints {
	return &memComplaints{byID: make(map[int]types.Complaint)}
}

func (m *memComplaints) Create(_ context.Context, complaint types.Complaint) (types.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !complaint.Status.Valid() || !complaint.Priority.Valid() {
		return types.Complaint{}, store.ErrInvalidValue
	}
	if complaint.CreatedAt.IsZero() {
		now := time.Now()
		complaint.CreatedAt = now
		complaint.UpdatedAt = now
	}
	m.seq++
	complaint.ID = m.seq
	m.byID[complaint.ID] = complaint
	return complaint, nil
}

func (m *memComplaints) Get(_ context.Context, id int) (types.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	complaint, ok := m.byID[id]
	if !ok {
		return types.Complaint{}, store.ErrNotFound
	}
	return complaint, nil
}

func (m *memComplaints) List(_ context.Context, filter store.ComplaintFilter) ([]types.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var complaints []types.Complaint
	for _, complaint := range m.byID {
		if filter.OwnerID != 0 && complaint.UserID != filter.OwnerID {
			continue
		}
		if filter.AssignedTo != 0 && (complaint.AssignedTo == nil || *complaint.AssignedTo != filter.AssignedTo) {
			continue
		}
		if filter.DepartmentID != 0 && complaint.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.Status != "" && complaint.Status != filter.Status {
			continue
		}
		complaints = append(complaints, complaint)
	}
	sort.Slice(complaints, func(i, j int) bool { return complaints[i].ID > complaints[j].ID })
	return complaints, nil
}

func (m *memComplaints) AppendUpdate(_ context.Context, id int, update types.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	complaint, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	if !update.Status.Valid() {
		return store.ErrInvalidValue
	}
	complaint.Updates = append(complaint.Updates, update)
	complaint.Status = update.Status
	complaint.UpdatedAt = update.Timestamp
	m.byID[id] = complaint
	return nil
}

func (m *memComplaints) Assign(_ context.Context, id, officerID int, update types.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	complaint, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	complaint.AssignedTo = &officerID
	complaint.Updates = append(complaint.Updates, update)
	complaint.Status = update.Status
	complaint.UpdatedAt = update.Timestamp
	m.byID[id] = complaint
	return nil
}

// memDepartments is an in-memory services.DepartmentRepository. inUse
// marks departments that complaints still reference.
type memDepartments struct {
	mu    sync.Mutex
	seq   int
	byID  map[int]types.Department
	inUse map[int]bool
}

func newMemDepartments() *memDepartments {
	return &memDepartments{
		byID:  make(map[int]types.Department),
		inUse: make(map[int]bool),
	}
}

func (m *memDepartments) GetByID(_ context.Context, id int) (types.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dept, ok := m.byID[id]
	if !ok {
		return types.Department{}, store.ErrNotFound
	}
	return dept, nil
}

func (m *memDepartments) List(_ context.Context) ([]types.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var depts []types.Department
	for _, dept := range m.byID {
		depts = append(depts, dept)
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].Name < depts[j].Name })
	return depts, nil
}

func (m *memDepartments) Create(_ context.Context, dept types.Department) (types.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Name, dept.Name) {
			return types.Department{}, store.ErrDuplicate
		}
	}
	m.seq++
	dept.ID = m.seq
	m.byID[dept.ID] = dept
	return dept, nil
}

func (m *memDepartments) Update(_ context.Context, dept types.Department) (types.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[dept.ID]; !ok {
		return types.Department{}, store.ErrNotFound
	}
	m.byID[dept.ID] = dept
	return dept, nil
}

func (m *memDepartments) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	if m.inUse[id] {
		return store.ErrInUse
	}
	delete(m.byID, id)
	return nil
}

// memReports computes report aggregates from the complaint fake.
type memReports struct {
	complaints  *memComplaints
	departments *memDepartments
}

func newMemReports(complaints *memComplaints, departments *memDepartments) *memReports {
	return &memReports{complaints: complaints, departments: departments}
}

func (m *memReports) StatusCounts(ctx context.Context) (map[types.Status]int, error) {
	all, err := m.complaints.List(ctx, store.ComplaintFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[types.Status]int)
	for _, complaint := range all {
		counts[complaint.Status]++
	}
	return counts, nil
}

func (m *memReports) DepartmentCounts(ctx context.Context) (map[string]int, error) {
	all, err := m.complaints.List(ctx, store.ComplaintFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, complaint := range all {
		dept, err := m.departments.GetByID(ctx, complaint.DepartmentID)
		if err != nil {
			continue
		}
		counts[dept.Name]++
	}
	return counts, nil
}

func (m *memReports) AverageResolutionSeconds(ctx context.Context) (float64, error) {
	all, err := m.complaints.List(ctx, store.ComplaintFilter{})
	if err != nil {
		return 0, err
	}
	var total float64
	var count int
	for _, complaint := range all {
		if complaint.Status.Terminal() {
			total += complaint.UpdatedAt.Sub(complaint.CreatedAt).Seconds()
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}
