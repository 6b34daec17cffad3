package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mocap.bridge/internal/bridge"
	"github.com/banshee-data/mocap.bridge/internal/recorder"
)

type fakeState struct {
	poses       []bridge.FlatPoseRecord
	stats       bridge.SlotStats
	truncations uint64
}

func (f *fakeState) LatestPoses() []bridge.FlatPoseRecord { return f.poses }
func (f *fakeState) SlotStats() bridge.SlotStats          { return f.stats }
func (f *fakeState) Truncations() uint64                  { return f.truncations }

type fakeSessions struct {
	sessions []recorder.Session
	err      error
}

func (f *fakeSessions) Sessions() ([]recorder.Session, error) { return f.sessions, f.err }

func TestListPoses(t *testing.T) {
	state := &fakeState{poses: []bridge.FlatPoseRecord{
		{GloveID: 1, NodeID: 1000},
		{GloveID: 1, NodeID: 1001},
	}}
	srv := httptest.NewServer(NewServer(state, nil).ServeMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/poses")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count int                     `json:"count"`
		Poses []bridge.FlatPoseRecord `json:"poses"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, uint32(1001), body.Poses[1].NodeID)
}

func TestShowStats(t *testing.T) {
	state := &fakeState{
		stats:       bridge.SlotStats{Published: 10, Overwritten: 3, Claimed: 7},
		truncations: 2,
	}
	srv := httptest.NewServer(NewServer(state, nil).ServeMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Slot        bridge.SlotStats `json:"slot"`
		Truncations uint64           `json:"truncations"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint64(10), body.Slot.Published)
	assert.Equal(t, uint64(2), body.Truncations)
}

func TestListSessions(t *testing.T) {
	store := &fakeSessions{sessions: []recorder.Session{
		{SessionID: "abc", Source: "sim", StartedAt: 123},
	}}
	srv := httptest.NewServer(NewServer(&fakeState{}, store).ServeMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessions []recorder.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "abc", sessions[0].SessionID)
}

func TestListSessionsWithoutStore(t *testing.T) {
	srv := httptest.NewServer(NewServer(&fakeState{}, nil).ServeMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListSessionsStoreError(t *testing.T) {
	store := &fakeSessions{err: fmt.Errorf("db locked")}
	srv := httptest.NewServer(NewServer(&fakeState{}, store).ServeMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(NewServer(&fakeState{}, nil).ServeMux())
	defer srv.Close()

	for _, path := range []string{"/poses", "/stats", "/sessions"} {
		resp, err := http.Post(srv.URL+path, "text/plain", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
	}
}
