package policy

import "gorm.io/gorm"

const (
	projectScopeSQL = "(projects.owner_id = ? OR projects.id IN " +
		"(SELECT project_id FROM project_members WHERE user_id = ?))"

	taskScopeSQL = "(tasks.created_by_id = ? OR tasks.assigned_to_id = ?" +
		" OR tasks.project_id IN (SELECT id FROM projects WHERE owner_id = ?)" +
		" OR tasks.project_id IN (SELECT project_id FROM project_members WHERE user_id = ?))"
)

// ProjectScope limits a query on the projects table to rows ProjectVisible
// would accept.
func ProjectScope(c Caller) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(projectScopeSQL, c.ID, c.ID)
	}
}

// TaskScope limits a query on the tasks table to rows TaskVisible would
// accept.
func TaskScope(c Caller) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(taskScopeSQL, c.ID, c.ID, c.ID, c.ID)
	}
}
