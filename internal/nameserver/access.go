package nameserver

import "github.com/wolverine07/langos/internal/nameserver/persistence"

// checkAccess reports whether user satisfies required ('R' or 'W') against
// meta: the owner always satisfies both, a 'W' grant satisfies both, an 'R'
// grant only satisfies a required 'R'. Grounded on spec.md §4.5's
// check_access.
func checkAccess(meta *persistence.FileMeta, user string, required persistence.Permission) bool {
	if user == meta.Owner {
		return true
	}
	perm, granted := meta.Lookup(user)
	if !granted {
		return false
	}
	if perm == persistence.PermWrite {
		return true
	}
	return required == persistence.PermRead
}

// isOwner reports whether user is meta's owner — the strict check DELETE,
// ADDACCESS and REMACCESS require.
func isOwner(meta *persistence.FileMeta, user string) bool {
	return user == meta.Owner
}
