package auth

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/redalab/redalab-backend/internal/rbac"
)

// AttachRoleFromDB overrides the token's role claim with the current users
// row, so a role change takes effect without reissuing tokens. Tokens whose
// subject no longer exists keep the claim role when allowClaimFallback is set
// (dev convenience) and are rejected otherwise.
func AttachRoleFromDB(sdb *sql.DB, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			claimRole := rbac.RoleFromContext(ctx)

			var role string
			err := sdb.QueryRowContext(ctx,
				`SELECT role FROM users WHERE id=$1 OR username=$1`, sub,
			).Scan(&role)

			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, sql.ErrNoRows):
				if allowClaimFallback && claimRole != "" {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "role lookup failed", http.StatusInternalServerError)
			}
		})
	}
}
