package middleware

import (
	"net/http"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/auth"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/handler/http/response"
)

// RequireRoles lets the request through only when the caller holds one of roles.
func RequireRoles(roles ...employee.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.HandleError(w, auth.ErrRoleNotAllowed)
		})
	}
}

// RequireCreditAdmin restricts an endpoint to HR and administrators.
func RequireCreditAdmin(next http.Handler) http.Handler {
	return RequireRoles(employee.RoleHR, employee.RoleAdmin)(next)
}
