package suite

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bgricker/apiconform/internal/apiclient"
	"github.com/bgricker/apiconform/internal/harness"
)

// credentials is the signup/signin body shape.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func newCredentials(env Env, prefix string) credentials {
	return credentials{Email: env.Email(prefix), Password: TestPassword}
}

func testCase(name, method, path string, action harness.Action) harness.TestCase {
	return harness.TestCase{
		Name:     name,
		Action:   action,
		Metadata: map[string]string{"method": method, "path": path},
	}
}

// after makes tc depend on the earlier cases named in prereqs.
func after(tc harness.TestCase, prereqs ...string) harness.TestCase {
	tc.Requires = append(tc.Requires, prereqs...)
	return tc
}

// healthCheck passes when GET /health answers 200 with status "ok" and a message.
func healthCheck(env Env, passDetails bool) harness.TestCase {
	return testCase("Health Check", http.MethodGet, "/health", func(ctx context.Context) (harness.Outcome, error) {
		resp, err := env.Client.Get(ctx, "/health")
		if err != nil {
			return harness.Outcome{}, err
		}
		if resp.Status != http.StatusOK {
			return harness.Fail(fmt.Sprintf("HTTP %d", resp.Status), bodyDetails(resp)), nil
		}
		if resp.JSON("status").String() != "ok" || !resp.JSON("message").Exists() {
			return harness.Fail("Invalid response format", bodyDetails(resp)), nil
		}
		if !passDetails {
			return harness.Pass("API is running correctly", nil), nil
		}
		return harness.Pass("API is running correctly", bodyDetails(resp)), nil
	})
}

// signIn drops any earlier session, posts creds and, on success, adopts the
// returned access token.
func signIn(ctx context.Context, c *apiclient.Client, creds credentials) (*apiclient.Response, error) {
	if err := c.ResetSession(); err != nil {
		return nil, err
	}
	resp, err := c.Post(ctx, "/auth/signin", creds)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusOK {
		if token := resp.JSON("session.access_token").String(); token != "" {
			c.SetToken(token)
		}
	}
	return resp, nil
}

func signUp(ctx context.Context, c *apiclient.Client, creds credentials) (*apiclient.Response, error) {
	return c.Post(ctx, "/auth/signup", creds)
}

func signOut(ctx context.Context, c *apiclient.Client) (*apiclient.Response, error) {
	resp, err := c.Post(ctx, "/auth/signout", map[string]any{})
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusOK {
		if err := c.ResetSession(); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// expectProtected passes when path answers 401 without a session.
func expectProtected(env Env, name, path, passMsg, failFmt string) harness.TestCase {
	return testCase(name, http.MethodGet, path, func(ctx context.Context) (harness.Outcome, error) {
		resp, err := env.Client.Get(ctx, path)
		if err != nil {
			return harness.Outcome{}, err
		}
		if resp.Status == http.StatusUnauthorized {
			return harness.Pass(passMsg, nil), nil
		}
		return harness.Fail(fmt.Sprintf(failFmt, resp.Status), nil), nil
	})
}

// firstAvailable reports the first candidate path that does not answer 404.
func firstAvailable(ctx context.Context, c *apiclient.Client, paths []string, body any) (string, *apiclient.Response, error) {
	for _, p := range paths {
		resp, err := c.Post(ctx, p, body)
		if err != nil {
			return "", nil, err
		}
		if resp.Status != http.StatusNotFound {
			return p, resp, nil
		}
	}
	return "", nil, nil
}

func bodyDetails(resp *apiclient.Response) map[string]any {
	if v, ok := resp.Value().(map[string]any); ok {
		return v
	}
	text := resp.Text(apiclient.DefaultSnippet)
	if text == "" {
		return map[string]any{"status_code": resp.Status}
	}
	return map[string]any{"status_code": resp.Status, "response": text}
}

func isServerError(status int) bool {
	return status == http.StatusInternalServerError ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable
}
