// Package tools assembles the portal's tool catalog. The catalog is
// built once at startup from explicit collaborators and handed to the
// registry, which freezes it; nothing registers tools at runtime.
package tools

import (
	"time"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	gcal "github.com/hphungg/chatbot-sub000/internal/calendar"
	"github.com/hphungg/chatbot-sub000/internal/directory"
	"github.com/hphungg/chatbot-sub000/internal/mail"
	caltools "github.com/hphungg/chatbot-sub000/internal/tools/calendar"
	"github.com/hphungg/chatbot-sub000/internal/tools/datetime"
	"github.com/hphungg/chatbot-sub000/internal/tools/department"
	"github.com/hphungg/chatbot-sub000/internal/tools/email"
	"github.com/hphungg/chatbot-sub000/internal/tools/employee"
	"github.com/hphungg/chatbot-sub000/internal/tools/project"
)

// Deps are the collaborators the tool families need.
type Deps struct {
	Directory directory.Directory
	Calendar  gcal.Service
	Mailer    mail.Mailer

	// Clock defaults to time.Now; tests pin it.
	Clock func() time.Time
}

// Catalog returns the full tool set in registration order.
func Catalog(deps Deps) []agent.Tool {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return []agent.Tool{
		&employee.ByName{Directory: deps.Directory},
		&employee.ByEmail{Directory: deps.Directory},
		&employee.ByDepartment{Directory: deps.Directory},
		&employee.ByProject{Directory: deps.Directory},
		&employee.All{Directory: deps.Directory},
		&employee.Count{Directory: deps.Directory},

		&department.ByName{Directory: deps.Directory},
		&department.ByCode{Directory: deps.Directory},
		&department.All{Directory: deps.Directory},
		&department.Count{Directory: deps.Directory},
		&department.Manager{Directory: deps.Directory},

		&project.ByName{Directory: deps.Directory},
		&project.All{Directory: deps.Directory},
		&project.Count{Directory: deps.Directory},
		&project.Active{Directory: deps.Directory},
		&project.Completed{Directory: deps.Directory},
		&project.ByDepartment{Directory: deps.Directory},

		&datetime.Now{Clock: clock},
		&caltools.List{Service: deps.Calendar, Now: clock},
		&caltools.Today{Service: deps.Calendar, Now: clock},
		&caltools.OnDate{Service: deps.Calendar},
		&caltools.Create{Service: deps.Calendar},
		&caltools.Delete{Service: deps.Calendar},

		&email.ToEmployee{Directory: deps.Directory, Mailer: deps.Mailer},
		&email.ToEmployeeByName{Directory: deps.Directory, Mailer: deps.Mailer},
		&email.ToDepartment{Directory: deps.Directory, Mailer: deps.Mailer},
		&email.ToCompany{Directory: deps.Directory, Mailer: deps.Mailer},
		&email.ToRecipients{Directory: deps.Directory, Mailer: deps.Mailer},
	}
}
