package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lte-dashboard/exporter/logging"
	"github.com/lte-dashboard/exporter/netmode"
	"github.com/lte-dashboard/exporter/selects"
)

type memoryStore struct {
	settings netmode.Settings
	writeErr error
	writes   int
}

func (m *memoryStore) NetModeSettings(context.Context) (netmode.Settings, error) {
	snapshot := netmode.Settings{}
	for k, v := range m.settings {
		snapshot[k] = v
	}
	return snapshot, nil
}

func (m *memoryStore) SetNetMode(_ context.Context, lteBand netmode.LTEBand, networkBand netmode.NetworkBand, mode netmode.NetworkMode) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.settings = netmode.Settings{
		netmode.KeyNetworkMode: string(mode),
		netmode.KeyNetworkBand: networkBand.Hex(),
		netmode.KeyLTEBand:     lteBand.Hex(),
	}
	return nil
}

func newTestHandler(t *testing.T, store *memoryStore) *Handler {
	t.Helper()
	manager := selects.NewManager(store, time.Second, logging.Discard())
	require.NoError(t, manager.Refresh(context.Background()))
	return NewHandler(manager, logging.Discard())
}

func TestListSelects(t *testing.T) {
	h := newTestHandler(t, &memoryStore{settings: netmode.Settings{
		netmode.KeyNetworkMode: "00",
		netmode.KeyLTEBand:     "4",
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/selects", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var states []selects.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &states))
	require.Len(t, states, 2)
	assert.Equal(t, "NetworkMode", states[0].Item)
	assert.True(t, states[0].Available)
	assert.Equal(t, "MODE_AUTO", states[0].Current)
	assert.Equal(t, "LTEBand", states[1].Item)
	assert.False(t, states[1].Available)
	assert.Len(t, states[1].Options, 8)
}

func TestGetSelect(t *testing.T) {
	h := newTestHandler(t, &memoryStore{settings: netmode.Settings{
		netmode.KeyNetworkMode: "0301",
		netmode.KeyLTEBand:     "80",
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/selects/LTEBand", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var state selects.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "Preferred LTE band", state.Name)
	assert.Equal(t, "B8", state.Current)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/selects/Nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectOption(t *testing.T) {
	store := &memoryStore{settings: netmode.Settings{
		netmode.KeyNetworkMode: "03",
		netmode.KeyLTEBand:     "80000000",
	}}
	h := newTestHandler(t, store)

	req := httptest.NewRequest(http.MethodPost, "/api/selects/LTEBand", strings.NewReader(`{"option":"B3"}`))
	req.Header.Set(requestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(requestIDHeader))
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, "4", store.settings[netmode.KeyLTEBand])
	assert.Equal(t, "03", store.settings[netmode.KeyNetworkMode])
}

func TestSelectOptionErrors(t *testing.T) {
	store := &memoryStore{settings: netmode.Settings{
		netmode.KeyNetworkMode: "03",
		netmode.KeyLTEBand:     "4",
	}}
	h := newTestHandler(t, store)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"invalid body", "/api/selects/LTEBand", `{`, http.StatusBadRequest},
		{"invalid option", "/api/selects/LTEBand", `{"option":"B66"}`, http.StatusBadRequest},
		{"unknown select", "/api/selects/NetworkBand", `{"option":"ALL"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, rec.Header().Get(requestIDHeader), resp.RequestID)
		})
	}

	store.writeErr = errors.New("api error 100003")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/selects/NetworkMode", strings.NewReader(`{"option":"MODE_AUTO"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, store.writes)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &memoryStore{settings: netmode.Settings{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/selects/LTEBand", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSelectOptionLogsCarryRequestID(t *testing.T) {
	store := &memoryStore{settings: netmode.Settings{
		netmode.KeyNetworkMode: "03",
		netmode.KeyLTEBand:     "4",
	}}
	manager := selects.NewManager(store, time.Second, logging.Discard())
	require.NoError(t, manager.Refresh(context.Background()))

	var buf bytes.Buffer
	h := NewHandler(manager, logging.NewWithWriter(&buf, logging.Config{Level: "debug", Format: "json"}))

	req := httptest.NewRequest(http.MethodPost, "/api/selects/LTEBand", strings.NewReader(`{"option":"B7"}`))
	req.Header.Set(requestIDHeader, "req-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	seen := map[string]string{}
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line struct {
			Msg       string `json:"msg"`
			RequestID string `json:"request_id"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		seen[line.Msg] = line.RequestID
	}
	assert.Equal(t, "req-9", seen["setting net mode"])
	assert.Equal(t, "req-9", seen["Option selected"])
}
