// Package directory provides read access to the company org model:
// employees, departments and projects. Name queries are
// case-insensitive substring matches and return every candidate so
// callers can disambiguate instead of guessing.
package directory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by exact-key lookups with no match.
var ErrNotFound = errors.New("directory: not found")

// MaxNameMatches caps candidates returned by name searches.
const MaxNameMatches = 10

// Employee is a portal member visible to the agent. Accounts that are
// unverified or banned never appear in query results.
type Employee struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	DepartmentID   string    `json:"departmentId,omitempty"`
	DepartmentName string    `json:"departmentName,omitempty"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// Department groups employees under a manager.
type Department struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	ManagerID     string `json:"managerId,omitempty"`
	ManagerName   string `json:"managerName,omitempty"`
	EmployeeCount int    `json:"employeeCount"`
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
)

// Project is a unit of work assigned to a department with member
// employees.
type Project struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Status         ProjectStatus `json:"status"`
	DepartmentID   string        `json:"departmentId,omitempty"`
	DepartmentName string        `json:"departmentName,omitempty"`
	StartDate      *time.Time    `json:"startDate,omitempty"`
	EndDate        *time.Time    `json:"endDate,omitempty"`
	MemberCount    int           `json:"memberCount"`
}

// Directory answers org queries for the agent's tools. Slice-returning
// name queries report zero, one, or many matches; only EmployeeByEmail
// and DepartmentByCode are exact and may return ErrNotFound.
type Directory interface {
	EmployeesByName(ctx context.Context, name string) ([]*Employee, error)
	EmployeeByEmail(ctx context.Context, email string) (*Employee, error)
	EmployeesByDepartment(ctx context.Context, departmentName string) ([]*Employee, error)
	EmployeesByProject(ctx context.Context, projectName string) ([]*Employee, error)
	AllEmployees(ctx context.Context) ([]*Employee, error)
	EmployeeCount(ctx context.Context) (int, error)

	DepartmentsByName(ctx context.Context, name string) ([]*Department, error)
	DepartmentByCode(ctx context.Context, code string) (*Department, error)
	AllDepartments(ctx context.Context) ([]*Department, error)
	DepartmentCount(ctx context.Context) (int, error)

	ProjectsByName(ctx context.Context, name string) ([]*Project, error)
	ProjectsByStatus(ctx context.Context, status ProjectStatus) ([]*Project, error)
	ProjectsByDepartment(ctx context.Context, departmentName string) ([]*Project, error)
	AllProjects(ctx context.Context) ([]*Project, error)
	ProjectCount(ctx context.Context) (int, error)
}
