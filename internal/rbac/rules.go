package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"catalog:view",
		"lesson:view",
		"tryit:run",
		"progress:read",
		"progress:write",
		"certificate:read",
		"quiz:attempt",
		"user:change_password",
	},
	"author": {
		"catalog:view",
		"lesson:view",
		"tryit:run",
		"content:*",
		"assets:write",
	},
	"admin": {
		"*", // everything
	},
}
