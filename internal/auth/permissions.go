package auth

// Service permissions gate the HTTP surface; they are unrelated to the
// domain permissions a member needs to hold a role.
const (
	PermRosterGenerate   = "roster.generate"
	PermRosterSubstitute = "roster.substitute"
	PermDirectoryRead    = "directory.read"
)

// rolePermissions maps caller roles onto service permissions.
var rolePermissions = map[string][]string{
	"admin":       {PermRosterGenerate, PermRosterSubstitute, PermDirectoryRead},
	"coordinator": {PermRosterGenerate, PermRosterSubstitute, PermDirectoryRead},
	"viewer":      {PermDirectoryRead},
}

// PermissionsForRoles expands roles into the permission set they grant.
func PermissionsForRoles(roles []string) map[string]struct{} {
	perms := make(map[string]struct{})
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			perms[p] = struct{}{}
		}
	}
	return perms
}
