package server

import (
	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

// RouteRequirement declares what an authenticated caller needs beyond a
// valid token: membership in one of Roles, and, when Permission is set,
// an active grant of that "module.action" key through some role. Routes
// declare requirements in one table at registration instead of scattering
// checks through handlers.
type RouteRequirement struct {
	Roles      []models.RoleName
	Permission string
}

// adminOnly is the requirement shared by every management route: admin or
// developer role, plus the per-action permission.
func adminOnly(module models.PermissionModule, action models.PermissionAction) RouteRequirement {
	return RouteRequirement{
		Roles:      []models.RoleName{models.RoleNameAdmin, models.RoleNameDeveloper},
		Permission: models.PermissionKey(module, action),
	}
}

// Require runs the second and third gates in order. Both gates query the
// live store rather than the role names frozen into the token at issuance,
// so revoking a role or a permission takes effect on the next request
// without reissuing tokens.
func (s *Server) Require(req RouteRequirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(req.Roles) > 0 {
			names, err := s.Roles.RoleNamesForUser(c.Request.Context(), GetUserIDFromContext(c))
			if err != nil {
				writeError(c, err)
				return
			}
			if !hasAnyRole(names, req.Roles) {
				writeError(c, errs.Forbidden("FORBIDDEN"))
				return
			}
		}

		if req.Permission != "" {
			keys, err := s.Roles.GrantedPermissionKeys(c.Request.Context(), GetUserIDFromContext(c))
			if err != nil {
				writeError(c, err)
				return
			}
			if !containsKey(keys, req.Permission) {
				writeError(c, errs.Forbidden("FORBIDDEN"))
				return
			}
		}

		c.Next()
	}
}

func hasAnyRole(have []string, want []models.RoleName) bool {
	for _, h := range have {
		for _, w := range want {
			if h == string(w) {
				return true
			}
		}
	}
	return false
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
