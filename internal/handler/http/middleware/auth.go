package middleware

import (
	"context"
	"net/http"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/auth"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type actorKey struct{}

// WithActor stores the caller identity on ctx.
func WithActor(ctx context.Context, actor leave.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the identity placed by AuthRequired.
func ActorFromContext(ctx context.Context) (leave.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(leave.Actor)
	return actor, ok
}

// AuthRequired accepts only verified access tokens and turns their claims into
// a leave.Actor for the handlers. It must run after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}
		if token == nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != "access" {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		userID, _ := claims["user_id"].(string)
		employeeID, _ := claims["employee_id"].(string)
		roleStr, _ := claims["role"].(string)
		if userID == "" || employeeID == "" {
			response.HandleError(w, auth.ErrMissingClaims)
			return
		}
		role := employee.Role(roleStr)
		if !role.IsValid() {
			response.HandleError(w, auth.ErrUnknownRole)
			return
		}

		ctx := WithActor(r.Context(), leave.Actor{
			UserID:     userID,
			EmployeeID: employeeID,
			Role:       role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
