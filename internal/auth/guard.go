package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/pkg/utilities"
)

var (
	ErrNoToken      = errors.New("no token")
	ErrInvalidToken = errors.New("token not valid")
)

// Verifier is the verification half of Signer.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// Guard resolves the Authorization header of a request to an Identity.
// There is no server-side session; a token is good until it expires.
type Guard struct {
	verifier Verifier
	logger   *zap.SugaredLogger
}

func NewGuard(v Verifier, logger *zap.SugaredLogger) *Guard {
	return &Guard{verifier: v, logger: logger}
}

// Authorize expects "Bearer <token>". A missing header or another scheme
// yields ErrNoToken; every verification failure yields ErrInvalidToken.
func (g *Guard) Authorize(header string) (Identity, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return Identity{}, ErrNoToken
	}
	claims, err := g.verifier.Verify(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != KindAccess || claims.UserID == "" {
		return Identity{}, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	return claims.Identity(), nil
}

// Middleware rejects unauthenticated requests with 401 before next runs and
// stores the Identity in the request context otherwise.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authorize(r.Header.Get("Authorization"))
		if err != nil {
			g.logger.Debugw("unauthenticated request", "path", r.URL.Path, "err", err)
			if errors.Is(err, ErrNoToken) {
				utilities.WriteError(w, http.StatusUnauthorized, ErrNoToken.Error())
			} else {
				utilities.WriteError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
