package handlers_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/session"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	status session.Status
	events chan session.Event
	last   session.Event
}

func newFakeSession(scope session.Scope) *fakeSession {
	return &fakeSession{
		status: session.Status{Scope: scope, State: session.Unauthenticated.String()},
		events: make(chan session.Event, 1),
	}
}

func (f *fakeSession) Status() session.Status { return f.status }

func (f *fakeSession) Subscribe() (<-chan session.Event, func()) {
	return f.events, func() {}
}

func (f *fakeSession) LastEvent() (session.Event, bool) {
	return f.last, f.last.Seq > 0
}

// decodeResponse reads the envelope and re-decodes its data into dest.
func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, dest any) *response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	if dest != nil && resp.Data != nil {
		databytes, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(databytes, dest))
	}

	return &resp
}
