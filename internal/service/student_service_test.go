package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

type mockStudentRepo struct {
	items       map[string]*models.Student
	enrollments map[string][]models.Enrollment
	listResult  []models.Student
	listTotal   int
	listErr     error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockStudentRepo) FindByNumber(ctx context.Context, number string) (*models.Student, error) {
	if student, ok := m.items[number]; ok {
		cp := *student
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.items == nil {
		m.items = make(map[string]*models.Student)
	}
	if _, exists := m.items[student.StudentNumber]; exists {
		return appErrors.Clone(appErrors.ErrDuplicateKey, "student number already exists")
	}
	cp := *student
	m.items[student.StudentNumber] = &cp
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) (bool, error) {
	if _, ok := m.items[student.StudentNumber]; !ok {
		return false, nil
	}
	cp := *student
	m.items[student.StudentNumber] = &cp
	return true, nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, number string) (bool, error) {
	if _, ok := m.items[number]; !ok {
		return false, nil
	}
	delete(m.items, number)
	// Enrollment rows cascade with the student, like the real schema.
	delete(m.enrollments, number)
	return true, nil
}

func (m *mockStudentRepo) ListByStudent(ctx context.Context, number string) ([]models.Enrollment, error) {
	return m.enrollments[number], nil
}

type mockRecorder struct {
	records []models.Record
	err     error
}

func (m *mockRecorder) Append(ctx context.Context, record *models.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *record)
	return nil
}

func validCreateStudentRequest() CreateStudentRequest {
	return CreateStudentRequest{
		StudentNumber: "26-0001",
		FirstName:     "Ana",
		LastName:      "Reyes",
		Email:         "ana@example.com",
		Section:       "A",
		GuardianName:  "Luz Reyes",
		GuardianEmail: "luz@example.com",
	}
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	recorder := &mockRecorder{}
	svc := NewStudentService(repo, recorder, nil, nil, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), validCreateStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, "26-0001", student.StudentNumber)

	require.Len(t, recorder.records, 1)
	assert.Equal(t, models.RecordTypeStudentAdded, recorder.records[0].Type)
	assert.Equal(t, "26-0001", recorder.records[0].StudentNumber)
}

func TestStudentServiceCreateDuplicateNumber(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockRecorder{}, nil, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), validCreateStudentRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCreateStudentRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrDuplicateKey))
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockRecorder{}, nil, nil, validator.New(), zap.NewNop())

	cases := map[string]func(*CreateStudentRequest){
		"missing first name":    func(r *CreateStudentRequest) { r.FirstName = "" },
		"missing guardian name": func(r *CreateStudentRequest) { r.GuardianName = "" },
		"bad student number":    func(r *CreateStudentRequest) { r.StudentNumber = "ABC-1" },
		"bad email":             func(r *CreateStudentRequest) { r.Email = "not-an-email" },
		"bad guardian email":    func(r *CreateStudentRequest) { r.GuardianEmail = "nope" },
		"unicode email domain":  func(r *CreateStudentRequest) { r.Email = "ana@exämple.com" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCreateStudentRequest()
			mutate(&req)
			_, err := svc.Create(context.Background(), req)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
		})
	}
}

func TestStudentServiceCreateRequiresGuardian(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockRecorder{}, nil, nil, validator.New(), zap.NewNop())

	req := validCreateStudentRequest()
	req.GuardianName = ""
	req.GuardianEmail = ""
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Empty(t, repo.items)
}

func TestStudentServiceCreateSurvivesAuditFailure(t *testing.T) {
	repo := &mockStudentRepo{}
	recorder := &mockRecorder{err: sql.ErrConnDone}
	svc := NewStudentService(repo, recorder, nil, nil, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), validCreateStudentRequest())
	require.NoError(t, err)
	assert.NotNil(t, student)
}

func TestStudentServiceGet(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{
		"26-0001": {StudentNumber: "26-0001", FirstName: "Ana"},
	}}
	svc := NewStudentService(repo, &mockRecorder{}, nil, nil, validator.New(), zap.NewNop())

	student, err := svc.Get(context.Background(), "26-0001")
	require.NoError(t, err)
	assert.Equal(t, "Ana", student.FirstName)

	_, err = svc.Get(context.Background(), "99-9999")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{
		"26-0001": {StudentNumber: "26-0001", FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com"},
	}}
	recorder := &mockRecorder{}
	svc := NewStudentService(repo, recorder, nil, nil, validator.New(), zap.NewNop())

	student, err := svc.Update(context.Background(), "26-0001", UpdateStudentRequest{
		FirstName:     "Anna",
		LastName:      "Reyes",
		Email:         "anna@example.com",
		Section:       "B",
		GuardianName:  "Luz Reyes",
		GuardianEmail: "luz@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Anna", student.FirstName)
	assert.Equal(t, "26-0001", student.StudentNumber)

	require.Len(t, recorder.records, 1)
	assert.Equal(t, models.RecordTypeStudentUpdated, recorder.records[0].Type)
}

func TestStudentServiceUpdateMissing(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockRecorder{}, nil, nil, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "99-9999", UpdateStudentRequest{
		FirstName:     "Ghost",
		LastName:      "Person",
		Email:         "ghost@example.com",
		GuardianName:  "Casper Person",
		GuardianEmail: "casper@example.com",
	})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestStudentServiceDelete(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{
		"26-0001": {StudentNumber: "26-0001"},
	}}
	recorder := &mockRecorder{}
	svc := NewStudentService(repo, recorder, nil, nil, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "26-0001"))
	require.Len(t, recorder.records, 1)
	assert.Equal(t, models.RecordTypeStudentDeleted, recorder.records[0].Type)

	err := svc.Delete(context.Background(), "26-0001")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func enrolledStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{
		items: map[string]*models.Student{
			"26-0001": {StudentNumber: "26-0001", FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com"},
		},
		enrollments: map[string][]models.Enrollment{
			"26-0001": {
				{StudentNumber: "26-0001", SubjectID: "sub-1", Status: models.EnrollmentStatusActive},
				{StudentNumber: "26-0001", SubjectID: "sub-2", Status: models.EnrollmentStatusDropped},
			},
		},
	}
}

func TestStudentServiceDeleteInvalidatesRosters(t *testing.T) {
	repo := enrolledStudentRepo()
	cache := &mockRosterCache{store: map[string][]models.Student{
		"roster:subject:sub-1:active": {{StudentNumber: "26-0001"}},
	}}
	svc := NewStudentService(repo, &mockRecorder{}, repo, cache, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "26-0001"))

	// Only the active subject's roster key is dropped, even though the
	// enrollment rows cascade away with the student row.
	assert.Equal(t, []string{"roster:subject:sub-1:active"}, cache.invalidated)
	assert.Empty(t, cache.store)
	assert.Empty(t, repo.enrollments)
}

func TestStudentServiceUpdateInvalidatesRosters(t *testing.T) {
	repo := enrolledStudentRepo()
	cache := &mockRosterCache{store: map[string][]models.Student{
		"roster:subject:sub-1:active": {{StudentNumber: "26-0001", FirstName: "Ana"}},
	}}
	svc := NewStudentService(repo, &mockRecorder{}, repo, cache, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "26-0001", UpdateStudentRequest{
		FirstName:     "Anna",
		LastName:      "Reyes",
		Email:         "anna@example.com",
		GuardianName:  "Luz Reyes",
		GuardianEmail: "luz@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"roster:subject:sub-1:active"}, cache.invalidated)
}

func TestStudentServiceList(t *testing.T) {
	repo := &mockStudentRepo{
		listResult: []models.Student{{StudentNumber: "26-0001"}, {StudentNumber: "26-0002"}},
		listTotal:  2,
	}
	svc := NewStudentService(repo, &mockRecorder{}, nil, nil, validator.New(), zap.NewNop())

	students, pagination, err := svc.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 2, pagination.TotalCount)
}
