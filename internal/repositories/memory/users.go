package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

// ===== ACCOUNTS =====

type accountRepo struct{ s *store }

func (r *accountRepo) Create(ctx context.Context, account *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t

	for _, a := range t.accounts {
		if a.Email == account.Email {
			return duplicate("create account", "uq_accounts_email")
		}
	}
	row := *account
	if row.Role == "" {
		row.Role = models.RoleStudent
	}
	if row.Status == "" {
		row.Status = models.AccountActive
	}
	row.ID = t.id("accounts")
	row.CreatedAt = now()
	row.UpdatedAt = row.CreatedAt
	t.accounts[row.ID] = row
	*account = row
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.t.accountPtr(id)
	if a == nil {
		return nil, notFound("get account")
	}
	return a, nil
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range r.s.t.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, notFound("get account by email")
}

func (r *accountRepo) List(ctx context.Context, filters repositories.AccountFilters) ([]*models.Account, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(filters.Query))
	var rows []*models.Account
	for _, a := range r.s.t.accounts {
		if filters.Role != nil && a.Role != *filters.Role {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(a.Email), query) &&
			!strings.Contains(strings.ToLower(a.FirstName), query) &&
			!strings.Contains(strings.ToLower(a.LastName), query) {
			continue
		}
		a := a
		rows = append(rows, &a)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	return page(rows, filters.Limit, filters.Offset), int64(len(rows)), nil
}

func (r *accountRepo) Update(ctx context.Context, account *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.accounts[account.ID]
	if !ok {
		return notFound("update account")
	}
	row.FirstName = account.FirstName
	row.LastName = account.LastName
	row.Phone = account.Phone
	row.DateOfBirth = account.DateOfBirth
	row.Address = account.Address
	row.ProfileImage = account.ProfileImage
	row.IsStaff = account.IsStaff
	row.UpdatedAt = now()
	r.s.t.accounts[row.ID] = row
	return nil
}

func (r *accountRepo) UpdateStatus(ctx context.Context, id uint, status models.AccountStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.accounts[id]
	if !ok {
		return notFound("get account")
	}
	row.Status = status
	row.UpdatedAt = now()
	r.s.t.accounts[id] = row
	return nil
}

func (r *accountRepo) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.accounts[id]
	if !ok {
		return notFound("get account")
	}
	row.PasswordHash = passwordHash
	row.UpdatedAt = now()
	r.s.t.accounts[id] = row
	return nil
}

func (r *accountRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.accounts[id]; !ok {
		return notFound("get account before delete")
	}
	r.s.t.deleteAccount(id)
	return nil
}

func (r *accountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if repositories.IsNotFoundError(err) {
		return false, nil
	}
	return err == nil, err
}

// ===== STUDENTS =====

type studentRepo struct{ s *store }

func (r *studentRepo) Create(ctx context.Context, student *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t

	if _, ok := t.accounts[student.AccountID]; !ok {
		return foreignKey("create student", "students_account_id_fkey")
	}
	if student.ParentAccountID != nil {
		if _, ok := t.accounts[*student.ParentAccountID]; !ok {
			return foreignKey("create student", "students_parent_account_id_fkey")
		}
	}
	for _, s := range t.students {
		if s.AccountID == student.AccountID {
			return duplicate("create student", "uq_students_account")
		}
		if s.StudentIDNumber == student.StudentIDNumber {
			return duplicate("create student", "uq_students_student_id_number")
		}
	}
	row := *student
	row.Account, row.Parent = nil, nil
	row.ID = t.id("students")
	t.students[row.ID] = row
	student.ID = row.ID
	return nil
}

func (r *studentRepo) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s := r.s.t.studentWithAccount(id)
	if s == nil {
		return nil, notFound("get student")
	}
	return s, nil
}

func (r *studentRepo) GetByAccountID(ctx context.Context, accountID uint) (*models.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, s := range r.s.t.students {
		if s.AccountID == accountID {
			return &s, nil
		}
	}
	return nil, notFound("get student by account")
}

func (r *studentRepo) Update(ctx context.Context, student *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.students[student.ID]
	if !ok {
		return notFound("update student")
	}
	if student.ParentAccountID != nil {
		if _, ok := r.s.t.accounts[*student.ParentAccountID]; !ok {
			return foreignKey("update student", "students_parent_account_id_fkey")
		}
	}
	row.GradeLevel = student.GradeLevel
	row.ParentAccountID = student.ParentAccountID
	row.EnrollmentDate = student.EnrollmentDate
	r.s.t.students[row.ID] = row
	return nil
}

func (r *studentRepo) LatestIDNumber(ctx context.Context, prefix string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	latest := ""
	for _, s := range r.s.t.students {
		n := s.StudentIDNumber
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if len(n) > len(latest) || (len(n) == len(latest) && n > latest) {
			latest = n
		}
	}
	return latest, nil
}

func (r *studentRepo) ListByParent(ctx context.Context, parentAccountID uint) ([]*models.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*models.Student
	for id, s := range r.s.t.students {
		if s.ParentAccountID != nil && *s.ParentAccountID == parentAccountID {
			rows = append(rows, r.s.t.studentWithAccount(id))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// ===== TEACHERS =====

type teacherRepo struct{ s *store }

func (r *teacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	if _, ok := t.accounts[teacher.AccountID]; !ok {
		return foreignKey("create teacher", "teachers_account_id_fkey")
	}
	for _, existing := range t.teachers {
		if existing.AccountID == teacher.AccountID {
			return duplicate("create teacher", "uq_teachers_account")
		}
	}
	row := *teacher
	row.Account = nil
	if len(row.Subjects) == 0 {
		row.Subjects = []byte("[]")
	}
	row.ID = t.id("teachers")
	t.teachers[row.ID] = row
	teacher.ID = row.ID
	teacher.Subjects = row.Subjects
	return nil
}

func (r *teacherRepo) GetByID(ctx context.Context, id uint) (*models.Teacher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	teacher := r.s.t.teacherWithAccount(id)
	if teacher == nil {
		return nil, notFound("get teacher")
	}
	return teacher, nil
}

func (r *teacherRepo) GetByAccountID(ctx context.Context, accountID uint) (*models.Teacher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, teacher := range r.s.t.teachers {
		if teacher.AccountID == accountID {
			return &teacher, nil
		}
	}
	return nil, notFound("get teacher by account")
}

func (r *teacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.teachers[teacher.ID]
	if !ok {
		return notFound("update teacher")
	}
	row.Qualifications = teacher.Qualifications
	row.Subjects = teacher.Subjects
	row.Bio = teacher.Bio
	row.ExperienceYears = teacher.ExperienceYears
	row.Rating = teacher.Rating
	row.HourlyRate = teacher.HourlyRate
	row.IsVerified = teacher.IsVerified
	r.s.t.teachers[row.ID] = row
	return nil
}

// ===== PARENTS =====

type parentRepo struct{ s *store }

func (r *parentRepo) Create(ctx context.Context, parent *models.Parent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	if _, ok := t.accounts[parent.AccountID]; !ok {
		return foreignKey("create parent", "parents_account_id_fkey")
	}
	for _, existing := range t.parents {
		if existing.AccountID == parent.AccountID {
			return duplicate("create parent", "uq_parents_account")
		}
	}
	row := *parent
	row.Account = nil
	row.ID = t.id("parents")
	t.parents[row.ID] = row
	parent.ID = row.ID
	return nil
}

func (r *parentRepo) GetByAccountID(ctx context.Context, accountID uint) (*models.Parent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.t.parents {
		if p.AccountID == accountID {
			return &p, nil
		}
	}
	return nil, notFound("get parent by account")
}

func (r *parentRepo) Update(ctx context.Context, parent *models.Parent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.parents[parent.ID]
	if !ok {
		return notFound("update parent")
	}
	row.Occupation = parent.Occupation
	row.EmergencyContact = parent.EmergencyContact
	r.s.t.parents[row.ID] = row
	return nil
}
