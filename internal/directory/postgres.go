package directory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Visibility filter applied to every employee query.
const employeeFilter = "u.verified = TRUE AND u.banned = FALSE"

const (
	queryEmployeesByName = `
		SELECT u.id, u.name, u.email, u.department_id, COALESCE(d.name, ''), u.created_at
		FROM users u LEFT JOIN departments d ON d.id = u.department_id
		WHERE ` + employeeFilter + ` AND u.name ILIKE '%' || $1 || '%'
		ORDER BY u.name LIMIT $2`

	queryEmployeeByEmail = `
		SELECT u.id, u.name, u.email, u.department_id, COALESCE(d.name, ''), u.created_at
		FROM users u LEFT JOIN departments d ON d.id = u.department_id
		WHERE ` + employeeFilter + ` AND LOWER(u.email) = LOWER($1)`

	queryEmployeesByDepartment = `
		SELECT u.id, u.name, u.email, u.department_id, d.name, u.created_at
		FROM users u JOIN departments d ON d.id = u.department_id
		WHERE ` + employeeFilter + ` AND d.name ILIKE '%' || $1 || '%'
		ORDER BY u.name`

	queryEmployeesByProject = `
		SELECT u.id, u.name, u.email, u.department_id, COALESCE(d.name, ''), u.created_at
		FROM users u
		LEFT JOIN departments d ON d.id = u.department_id
		JOIN project_members pm ON pm.user_id = u.id
		JOIN projects p ON p.id = pm.project_id
		WHERE ` + employeeFilter + ` AND p.name ILIKE '%' || $1 || '%'
		ORDER BY u.name`

	queryAllEmployees = `
		SELECT u.id, u.name, u.email, u.department_id, COALESCE(d.name, ''), u.created_at
		FROM users u LEFT JOIN departments d ON d.id = u.department_id
		WHERE ` + employeeFilter + `
		ORDER BY u.name`

	queryEmployeeCount = `SELECT COUNT(*) FROM users u WHERE ` + employeeFilter

	queryDepartmentsByName = `
		SELECT d.id, d.name, d.code, d.manager_id, COALESCE(m.name, ''),
		       (SELECT COUNT(*) FROM users u WHERE u.department_id = d.id AND ` + employeeFilter + `)
		FROM departments d LEFT JOIN users m ON m.id = d.manager_id
		WHERE d.name ILIKE '%' || $1 || '%'
		ORDER BY d.name`

	queryDepartmentByCode = `
		SELECT d.id, d.name, d.code, d.manager_id, COALESCE(m.name, ''),
		       (SELECT COUNT(*) FROM users u WHERE u.department_id = d.id AND ` + employeeFilter + `)
		FROM departments d LEFT JOIN users m ON m.id = d.manager_id
		WHERE LOWER(d.code) = LOWER($1)`

	queryAllDepartments = `
		SELECT d.id, d.name, d.code, d.manager_id, COALESCE(m.name, ''),
		       (SELECT COUNT(*) FROM users u WHERE u.department_id = d.id AND ` + employeeFilter + `)
		FROM departments d LEFT JOIN users m ON m.id = d.manager_id
		ORDER BY d.name`

	queryDepartmentCount = `SELECT COUNT(*) FROM departments`

	queryProjectsByName = `
		SELECT p.id, p.name, p.status, p.department_id, COALESCE(d.name, ''),
		       p.start_date, p.end_date,
		       (SELECT COUNT(*) FROM project_members pm WHERE pm.project_id = p.id)
		FROM projects p LEFT JOIN departments d ON d.id = p.department_id
		WHERE p.name ILIKE '%' || $1 || '%'
		ORDER BY p.name`

	queryProjectsByStatus = `
		SELECT p.id, p.name, p.status, p.department_id, COALESCE(d.name, ''),
		       p.start_date, p.end_date,
		       (SELECT COUNT(*) FROM project_members pm WHERE pm.project_id = p.id)
		FROM projects p LEFT JOIN departments d ON d.id = p.department_id
		WHERE p.status = $1
		ORDER BY p.name`

	queryProjectsByDepartment = `
		SELECT p.id, p.name, p.status, p.department_id, d.name,
		       p.start_date, p.end_date,
		       (SELECT COUNT(*) FROM project_members pm WHERE pm.project_id = p.id)
		FROM projects p JOIN departments d ON d.id = p.department_id
		WHERE d.name ILIKE '%' || $1 || '%'
		ORDER BY p.name`

	queryAllProjects = `
		SELECT p.id, p.name, p.status, p.department_id, COALESCE(d.name, ''),
		       p.start_date, p.end_date,
		       (SELECT COUNT(*) FROM project_members pm WHERE pm.project_id = p.id)
		FROM projects p LEFT JOIN departments d ON d.id = p.department_id
		ORDER BY p.name`

	queryProjectCount = `SELECT COUNT(*) FROM projects`
)

// PostgresDirectory answers org queries against the portal database.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory wraps an open database handle. The handle is
// shared with the conversation store; the caller owns its lifecycle.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (p *PostgresDirectory) EmployeesByName(ctx context.Context, name string) ([]*Employee, error) {
	rows, err := p.db.QueryContext(ctx, queryEmployeesByName, name, MaxNameMatches)
	if err != nil {
		return nil, fmt.Errorf("query employees by name: %w", err)
	}
	return scanEmployees(rows)
}

func (p *PostgresDirectory) EmployeeByEmail(ctx context.Context, email string) (*Employee, error) {
	row := p.db.QueryRowContext(ctx, queryEmployeeByEmail, email)
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query employee by email: %w", err)
	}
	return emp, nil
}

func (p *PostgresDirectory) EmployeesByDepartment(ctx context.Context, departmentName string) ([]*Employee, error) {
	rows, err := p.db.QueryContext(ctx, queryEmployeesByDepartment, departmentName)
	if err != nil {
		return nil, fmt.Errorf("query employees by department: %w", err)
	}
	return scanEmployees(rows)
}

func (p *PostgresDirectory) EmployeesByProject(ctx context.Context, projectName string) ([]*Employee, error) {
	rows, err := p.db.QueryContext(ctx, queryEmployeesByProject, projectName)
	if err != nil {
		return nil, fmt.Errorf("query employees by project: %w", err)
	}
	return scanEmployees(rows)
}

func (p *PostgresDirectory) AllEmployees(ctx context.Context) ([]*Employee, error) {
	rows, err := p.db.QueryContext(ctx, queryAllEmployees)
	if err != nil {
		return nil, fmt.Errorf("query all employees: %w", err)
	}
	return scanEmployees(rows)
}

func (p *PostgresDirectory) EmployeeCount(ctx context.Context) (int, error) {
	return p.count(ctx, queryEmployeeCount)
}

func (p *PostgresDirectory) DepartmentsByName(ctx context.Context, name string) ([]*Department, error) {
	rows, err := p.db.QueryContext(ctx, queryDepartmentsByName, name)
	if err != nil {
		return nil, fmt.Errorf("query departments by name: %w", err)
	}
	return scanDepartments(rows)
}

func (p *PostgresDirectory) DepartmentByCode(ctx context.Context, code string) (*Department, error) {
	row := p.db.QueryRowContext(ctx, queryDepartmentByCode, code)
	dept, err := scanDepartment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query department by code: %w", err)
	}
	return dept, nil
}

func (p *PostgresDirectory) AllDepartments(ctx context.Context) ([]*Department, error) {
	rows, err := p.db.QueryContext(ctx, queryAllDepartments)
	if err != nil {
		return nil, fmt.Errorf("query all departments: %w", err)
	}
	return scanDepartments(rows)
}

func (p *PostgresDirectory) DepartmentCount(ctx context.Context) (int, error) {
	return p.count(ctx, queryDepartmentCount)
}

func (p *PostgresDirectory) ProjectsByName(ctx context.Context, name string) ([]*Project, error) {
	rows, err := p.db.QueryContext(ctx, queryProjectsByName, name)
	if err != nil {
		return nil, fmt.Errorf("query projects by name: %w", err)
	}
	return scanProjects(rows)
}

func (p *PostgresDirectory) ProjectsByStatus(ctx context.Context, status ProjectStatus) ([]*Project, error) {
	rows, err := p.db.QueryContext(ctx, queryProjectsByStatus, string(status))
	if err != nil {
		return nil, fmt.Errorf("query projects by status: %w", err)
	}
	return scanProjects(rows)
}

func (p *PostgresDirectory) ProjectsByDepartment(ctx context.Context, departmentName string) ([]*Project, error) {
	rows, err := p.db.QueryContext(ctx, queryProjectsByDepartment, departmentName)
	if err != nil {
		return nil, fmt.Errorf("query projects by department: %w", err)
	}
	return scanProjects(rows)
}

func (p *PostgresDirectory) AllProjects(ctx context.Context) ([]*Project, error) {
	rows, err := p.db.QueryContext(ctx, queryAllProjects)
	if err != nil {
		return nil, fmt.Errorf("query all projects: %w", err)
	}
	return scanProjects(rows)
}

func (p *PostgresDirectory) ProjectCount(ctx context.Context) (int, error) {
	return p.count(ctx, queryProjectCount)
}

func (p *PostgresDirectory) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*Employee, error) {
	var e Employee
	var deptID sql.NullString
	var created time.Time
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &deptID, &e.DepartmentName, &created); err != nil {
		return nil, err
	}
	e.DepartmentID = deptID.String
	e.JoinedAt = created
	return &e, nil
}

func scanEmployees(rows *sql.Rows) ([]*Employee, error) {
	defer rows.Close()
	var out []*Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanDepartment(row rowScanner) (*Department, error) {
	var d Department
	var managerID sql.NullString
	if err := row.Scan(&d.ID, &d.Name, &d.Code, &managerID, &d.ManagerName, &d.EmployeeCount); err != nil {
		return nil, err
	}
	d.ManagerID = managerID.String
	return &d, nil
}

func scanDepartments(rows *sql.Rows) ([]*Department, error) {
	defer rows.Close()
	var out []*Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var deptID sql.NullString
	var start, end sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &p.Status, &deptID, &p.DepartmentName, &start, &end, &p.MemberCount); err != nil {
		return nil, err
	}
	p.DepartmentID = deptID.String
	if start.Valid {
		p.StartDate = &start.Time
	}
	if end.Valid {
		p.EndDate = &end.Time
	}
	return &p, nil
}

func scanProjects(rows *sql.Rows) ([]*Project, error) {
	defer rows.Close()
	var out []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
