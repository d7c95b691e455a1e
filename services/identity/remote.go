package identitysvc

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

const (
	verifyPath = "/auth/verify"
	verifyOp   = "identity.Verify"
)

// RemoteVerifier asks the external login service who a bearer token belongs to.
type RemoteVerifier struct {
	client *resty.Client
}

var _ core.IdentityVerifier = (*RemoteVerifier)(nil)

func NewRemoteVerifier(baseURL string, timeout time.Duration) *RemoteVerifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(1).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &RemoteVerifier{client: client}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (core.Identity, error) {
	if token == "" {
		return core.Identity{}, core.ErrUnauthenticated
	}

	var ident core.Identity
	resp, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&ident).
		Get(verifyPath)
	if err != nil {
		return core.Identity{}, core.NewError(core.KindDependencyFailure, verifyOp, "login service unavailable", errors.Wrap(err, "calling login service"))
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return core.Identity{}, core.ErrUnauthenticated
	case code != http.StatusOK:
		return core.Identity{}, core.NewError(core.KindDependencyFailure, verifyOp, "login service unavailable",
			errors.Errorf("login service answered %d: %s", code, resp.String()))
	}
	if ident.ID == "" {
		return core.Identity{}, core.ErrUnauthenticated
	}
	if len(ident.Roles) == 0 {
		ident.Roles = []string{core.RoleGuest}
	}
	return ident, nil
}
