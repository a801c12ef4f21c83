package mockjudge

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"ojclient/internal/cli/api"
	"ojclient/internal/testutil"
)

func do(t *testing.T, method, url, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(testutil.MustMarshalJSON(t, body))
	}
	req, err := http.NewRequest(method, url, reader)
	testutil.AssertNoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	testutil.AssertNoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	testutil.AssertNoError(t, err)
	return resp.StatusCode, data
}

func login(t *testing.T, base string) api.Tokens {
	t.Helper()
	status, body := do(t, http.MethodPost, base+"/auth/login/", "", map[string]string{"email": DemoEmail, "password": DemoPassword})
	testutil.AssertEqual(t, status, http.StatusOK)
	var resp api.LoginResponse
	testutil.MustUnmarshalJSON(t, body, &resp)
	return resp.Tokens
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, base := NewTestServer(t, Options{})
	status, body := do(t, http.MethodPost, base+"/auth/login/", "", map[string]string{"email": DemoEmail, "password": "nope"})
	testutil.AssertEqual(t, status, http.StatusUnauthorized)
	var resp map[string]string
	testutil.MustUnmarshalJSON(t, body, &resp)
	testutil.AssertEqual(t, resp["error"], "Invalid credentials")
}

func TestSubmissionAdvancesPerRead(t *testing.T) {
	s, base := NewTestServer(t, Options{})
	tokens := login(t, base)

	status, body := do(t, http.MethodPost, base+"/submissions/submit/", tokens.Access,
		api.SubmitRequest{Code: "print(1)", LanguageID: 1, ProblemID: 1})
	testutil.AssertEqual(t, status, http.StatusCreated)
	var created api.Submission
	testutil.MustUnmarshalJSON(t, body, &created)
	testutil.AssertEqual(t, created.Status, api.StatusPending)

	var seen []api.Status
	for i := 0; i < 4; i++ {
		_, body = do(t, http.MethodGet, base+"/submissions/1/", tokens.Access, nil)
		var sub api.Submission
		testutil.MustUnmarshalJSON(t, body, &sub)
		seen = append(seen, sub.Status)
		if sub.Status == api.StatusAccepted {
			testutil.AssertEqual(t, sub.Score, 100.0)
			testutil.AssertEqual(t, sub.TestCasesPassed, 3)
		}
	}
	testutil.AssertEqual(t, seen[0], api.StatusPending)
	testutil.AssertEqual(t, seen[1], api.StatusRunning)
	testutil.AssertEqual(t, seen[2], api.StatusAccepted)
	testutil.AssertEqual(t, seen[3], api.StatusAccepted)
	testutil.AssertEqual(t, s.Hits("GET /api/submissions/:id/"), 4)
}

func TestInvalidatedAccessTokenNeedsRefresh(t *testing.T) {
	s, base := NewTestServer(t, Options{})
	tokens := login(t, base)
	s.InvalidateAccessTokens()

	status, body := do(t, http.MethodGet, base+"/auth/profile/", tokens.Access, nil)
	testutil.AssertEqual(t, status, http.StatusUnauthorized)
	var detail map[string]string
	testutil.MustUnmarshalJSON(t, body, &detail)
	testutil.AssertEqual(t, detail["code"], "token_not_valid")

	status, body = do(t, http.MethodPost, base+"/auth/token/refresh/", "", map[string]string{"refresh": tokens.Refresh})
	testutil.AssertEqual(t, status, http.StatusOK)
	var refreshed api.Tokens
	testutil.MustUnmarshalJSON(t, body, &refreshed)

	status, _ = do(t, http.MethodGet, base+"/auth/profile/", refreshed.Access, nil)
	testutil.AssertEqual(t, status, http.StatusOK)
	testutil.AssertEqual(t, s.Refreshes(), 1)
}

func TestLogoutBlacklistsRefresh(t *testing.T) {
	_, base := NewTestServer(t, Options{})
	tokens := login(t, base)

	status, _ := do(t, http.MethodPost, base+"/auth/logout/", tokens.Access, map[string]string{"refresh": tokens.Refresh})
	testutil.AssertEqual(t, status, http.StatusOK)

	status, _ = do(t, http.MethodPost, base+"/auth/token/refresh/", "", map[string]string{"refresh": tokens.Refresh})
	testutil.AssertEqual(t, status, http.StatusUnauthorized)
}

func TestRegisterFieldErrors(t *testing.T) {
	_, base := NewTestServer(t, Options{})
	status, body := do(t, http.MethodPost, base+"/auth/register/", "", api.RegisterRequest{
		Username: "demo", Email: DemoEmail, Password: "Passw0rd!", PasswordConfirm: "Passw0rd!",
		FirstName: "A", LastName: "B",
	})
	testutil.AssertEqual(t, status, http.StatusBadRequest)
	var fields map[string][]string
	testutil.MustUnmarshalJSON(t, body, &fields)
	testutil.AssertEqual(t, fields["email"][0], "Email already exists.")
	testutil.AssertEqual(t, fields["username"][0], "A user with that username already exists.")
}

func TestScriptedEmptyStatus(t *testing.T) {
	s, base := NewTestServer(t, Options{})
	tokens := login(t, base)
	s.Script(1, api.StatusPending, "")

	do(t, http.MethodPost, base+"/submissions/submit/", tokens.Access, api.SubmitRequest{Code: "x", LanguageID: 1, ProblemID: 1})
	do(t, http.MethodGet, base+"/submissions/1/", tokens.Access, nil)
	_, body := do(t, http.MethodGet, base+"/submissions/1/", tokens.Access, nil)
	var raw map[string]interface{}
	testutil.AssertNoError(t, json.Unmarshal(body, &raw))
	testutil.AssertEqual(t, raw["status"], "")
}

func TestOtherUsersSubmissionIsNotFound(t *testing.T) {
	s, base := NewTestServer(t, Options{})
	tokens := login(t, base)
	do(t, http.MethodPost, base+"/submissions/submit/", tokens.Access, api.SubmitRequest{Code: "x", LanguageID: 1, ProblemID: 1})

	s.AddUser(api.User{Username: "eve", Email: "eve@example.com"}, "Passw0rd!")
	_, body := do(t, http.MethodPost, base+"/auth/login/", "", map[string]string{"email": "eve@example.com", "password": "Passw0rd!"})
	var eve api.LoginResponse
	testutil.MustUnmarshalJSON(t, body, &eve)

	status, _ := do(t, http.MethodGet, base+"/submissions/1/", eve.Tokens.Access, nil)
	testutil.AssertEqual(t, status, http.StatusNotFound)
}
