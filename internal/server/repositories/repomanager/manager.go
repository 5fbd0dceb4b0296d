package repomanager

import (
	"context"
	"database/sql"

	"github.com/supermega-io/usermemory/internal/dbx"
	"github.com/supermega-io/usermemory/internal/server/repositories/preferences"
	"github.com/supermega-io/usermemory/internal/server/repositories/projects"
	"github.com/supermega-io/usermemory/internal/server/repositories/sessions"
	"github.com/supermega-io/usermemory/internal/server/repositories/usage"
	"github.com/supermega-io/usermemory/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Usage(db dbx.DBTX) usage.Repository
	Projects(db dbx.DBTX) projects.Repository
	Preferences(db dbx.DBTX) preferences.Repository
}
