package rbac

const (
	PermCourseImport = "course:import"
	PermCourseView   = "course:view"
	PermOutcomeEdit  = "outcome:edit"
	PermOutcomeView  = "outcome:view"
	PermReportRun    = "report:run"
	PermReportView   = "report:view"
	PermEventsRead   = "events:read"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"student": {
		PermOutcomeView,
	},
	"teacher": {
		"course:*",
		"outcome:*",
		"report:*",
	},
	"admin": {
		"*",
	},
}
