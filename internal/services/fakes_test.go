package services_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/civitrack/apiserver/internal/store"
	"github.com/civitrack/apiserver/types"
)

// memUsers is an in-memory UserRepository.
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

// memComplaints is an in-memory ComplaintRepository. It mimics the
// database enum constraint by rejecting unsupported statuses.
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
	m.byID[complaint.ID] = cloneComplaint(complaint)
	return complaint, nil
}

func (m *memComplaints) Get(_ context.Context, id int) (types.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	complaint, ok := m.byID[id]
	if !ok {
		return types.Complaint{}, store.ErrNotFound
	}
	return cloneComplaint(complaint), nil
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
		complaints = append(complaints, cloneComplaint(complaint))
	}
	// Newest first, as the SQL repository orders by created_at DESC.
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

func cloneComplaint(complaint types.Complaint) types.Complaint {
	clone := complaint
	clone.Updates = append([]types.Update(nil), complaint.Updates...)
	if complaint.AssignedTo != nil {
		assigned := *complaint.AssignedTo
		clone.AssignedTo = &assigned
	}
	return clone
}

// memDepartments is an in-memory DepartmentRepository. inUse marks
// departments that complaints still reference, mirroring the RESTRICT
// foreign key.
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

// memReports is an in-memory ReportRepository computing aggregates from
// a complaint fake, the way the SQL queries do.
type memReports struct {
	complaints *memComplaints
	deptNames  map[int]string
}

func newMemReports(complaints *memComplaints, deptNames map[int]string) *memReports {
	return &memReports{complaints: complaints, deptNames: deptNames}
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
		counts[m.deptNames[complaint.DepartmentID]]++
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
