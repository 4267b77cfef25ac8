package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryDirectory is an in-memory Directory used in tests and local
// development. Matching semantics mirror the postgres backend.
type MemoryDirectory struct {
	mu          sync.RWMutex
	employees   []*Employee
	departments []*Department
	projects    []*Project
	members     map[string][]string // project id -> employee ids
}

// NewMemoryDirectory returns an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{members: make(map[string][]string)}
}

// AddEmployee registers an employee. Visibility filtering happens at
// insert time in this backend: callers add only visible employees.
func (m *MemoryDirectory) AddEmployee(e *Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees = append(m.employees, e)
}

func (m *MemoryDirectory) AddDepartment(d *Department) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments = append(m.departments, d)
}

func (m *MemoryDirectory) AddProject(p *Project, memberIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.MemberCount = len(memberIDs)
	m.projects = append(m.projects, p)
	m.members[p.ID] = memberIDs
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (m *MemoryDirectory) EmployeesByName(_ context.Context, name string) ([]*Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Employee
	for _, e := range m.employees {
		if containsFold(e.Name, name) {
			out = append(out, e)
			if len(out) == MaxNameMatches {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryDirectory) EmployeeByEmail(_ context.Context, email string) (*Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees {
		if strings.EqualFold(e.Email, email) {
			return e, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryDirectory) EmployeesByDepartment(_ context.Context, departmentName string) ([]*Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Employee
	for _, e := range m.employees {
		if e.DepartmentName != "" && containsFold(e.DepartmentName, departmentName) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryDirectory) EmployeesByProject(_ context.Context, projectName string) ([]*Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make(map[string]bool)
	for _, p := range m.projects {
		if containsFold(p.Name, projectName) {
			for _, id := range m.members[p.ID] {
				ids[id] = true
			}
		}
	}
	var out []*Employee
	for _, e := range m.employees {
		if ids[e.ID] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryDirectory) AllEmployees(_ context.Context) ([]*Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Employee, len(m.employees))
	copy(out, m.employees)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryDirectory) EmployeeCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.employees), nil
}

func (m *MemoryDirectory) DepartmentsByName(_ context.Context, name string) ([]*Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Department
	for _, d := range m.departments {
		if containsFold(d.Name, name) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryDirectory) DepartmentByCode(_ context.Context, code string) (*Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.departments {
		if strings.EqualFold(d.Code, code) {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryDirectory) AllDepartments(_ context.Context) ([]*Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Department, len(m.departments))
	copy(out, m.departments)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryDirectory) DepartmentCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.departments), nil
}

func (m *MemoryDirectory) ProjectsByName(_ context.Context, name string) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Project
	for _, p := range m.projects {
		if containsFold(p.Name, name) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryDirectory) ProjectsByStatus(_ context.Context, status ProjectStatus) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Project
	for _, p := range m.projects {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryDirectory) ProjectsByDepartment(_ context.Context, departmentName string) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Project
	for _, p := range m.projects {
		if p.DepartmentName != "" && containsFold(p.DepartmentName, departmentName) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryDirectory) AllProjects(_ context.Context) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Project, len(m.projects))
	copy(out, m.projects)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryDirectory) ProjectCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.projects), nil
}
