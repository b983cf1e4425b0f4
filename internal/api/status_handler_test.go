package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/amp-server/internal/api/middleware"
	"github.com/taoyao-code/amp-server/internal/broker"
	"github.com/taoyao-code/amp-server/internal/device"
	"github.com/taoyao-code/amp-server/internal/device/devicetest"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
	"github.com/taoyao-code/amp-server/internal/storage/models"
	pgstorage "github.com/taoyao-code/amp-server/internal/storage/pg"
)

type fakeJournal struct {
	recs   []models.CommandRecord
	limit  int
	action string
}

func (f *fakeJournal) ListCommands(_ context.Context, limit int) ([]models.CommandRecord, error) {
	f.limit = limit
	return f.recs, nil
}

func (f *fakeJournal) ListCommandsByAction(_ context.Context, action string, limit int) ([]models.CommandRecord, error) {
	f.action, f.limit = action, limit
	var out []models.CommandRecord
	for _, r := range f.recs {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSnapshots struct {
	st  amp.Status
	at  time.Time
	err error
}

func (f fakeSnapshots) LatestSnapshot(context.Context) (amp.Status, time.Time, error) {
	return f.st, f.at, f.err
}

func newTestEngine(t *testing.T, d Deps) (*gin.Engine, *devicetest.Amp) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sim := devicetest.NewAmp(amp.Status{MainVolume: 10, Input: 3, Input2Effect: amp.Effect3D})
	d.Broker = broker.New(device.New(sim))
	r := gin.New()
	RegisterRoutes(r, d)
	return r, sim
}

func do(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestStatusEndpoints(t *testing.T) {
	r, sim := newTestEngine(t, Deps{})

	t.Run("查询状态", func(t *testing.T) {
		rr := do(r, http.MethodGet, "/api/status", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var st amp.Status
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
		assert.Equal(t, uint8(10), st.MainVolume)
		assert.Equal(t, amp.Effect3D, st.Input2Effect)
	})

	t.Run("强制刷新", func(t *testing.T) {
		before := sim.Reads()
		rr := do(r, http.MethodPost, "/api/status/refresh", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, before+1, sim.Reads())
	})

	t.Run("可用指令", func(t *testing.T) {
		rr := do(r, http.MethodGet, "/api/actions", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Actions []string `json:"actions"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Contains(t, body.Actions, "volume_up")
		assert.Contains(t, body.Actions, "select_input_rca")
	})
}

func TestApplyAction(t *testing.T) {
	r, sim := newTestEngine(t, Deps{})

	t.Run("音量加", func(t *testing.T) {
		rr := do(r, http.MethodPost, "/api/actions", ActionRequest{Action: "volume_up"})
		require.Equal(t, http.StatusOK, rr.Code)
		var st amp.Status
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
		assert.Equal(t, uint8(11), st.MainVolume)
		assert.Equal(t, uint8(11), sim.State().MainVolume)
	})

	t.Run("未知指令", func(t *testing.T) {
		writes := len(sim.Writes())
		rr := do(r, http.MethodPost, "/api/actions", ActionRequest{Action: "self_destruct"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var body ErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, CodeUnknownAction, body.Code)
		assert.Len(t, sim.Writes(), writes)
	})

	t.Run("静音不支持", func(t *testing.T) {
		rr := do(r, http.MethodPost, "/api/actions", ActionRequest{Action: "mute"})
		assert.Equal(t, http.StatusNotImplemented, rr.Code)
	})

	t.Run("缺少action", func(t *testing.T) {
		rr := do(r, http.MethodPost, "/api/actions", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("回显错误", func(t *testing.T) {
		sim.Override(amp.SelectInput(amp.InputRCA).Frame, []byte{0x00, 0x00, 0x00, 0x00})
		rr := do(r, http.MethodPost, "/api/actions", ActionRequest{Action: "select_input_rca"})
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestJournalEndpoint(t *testing.T) {
	t.Run("未启用", func(t *testing.T) {
		r, _ := newTestEngine(t, Deps{})
		rr := do(r, http.MethodGet, "/api/journal", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("查询", func(t *testing.T) {
		j := &fakeJournal{recs: []models.CommandRecord{{ID: uuid.New(), Action: "volume_up", Success: true}}}
		r, _ := newTestEngine(t, Deps{Journal: j})
		rr := do(r, http.MethodGet, "/api/journal?limit=5", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 5, j.limit)
		assert.Empty(t, j.action)
		assert.Contains(t, rr.Body.String(), "volume_up")
	})

	t.Run("按动作过滤", func(t *testing.T) {
		j := &fakeJournal{recs: []models.CommandRecord{
			{ID: uuid.New(), Action: "volume_up", Success: true},
			{ID: uuid.New(), Action: "standby", Success: true},
		}}
		r, _ := newTestEngine(t, Deps{Journal: j})
		rr := do(r, http.MethodGet, "/api/journal?action=standby", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "standby", j.action)
		assert.Equal(t, 50, j.limit)
		assert.Contains(t, rr.Body.String(), "standby")
		assert.NotContains(t, rr.Body.String(), "volume_up")
	})
}

func TestLatestSnapshotEndpoint(t *testing.T) {
	t.Run("无快照", func(t *testing.T) {
		r, _ := newTestEngine(t, Deps{Snapshots: fakeSnapshots{err: pgstorage.ErrNoSnapshot}})
		rr := do(r, http.MethodGet, "/api/snapshots/latest", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("查询失败", func(t *testing.T) {
		r, _ := newTestEngine(t, Deps{Snapshots: fakeSnapshots{err: errors.New("db down")}})
		rr := do(r, http.MethodGet, "/api/snapshots/latest", nil)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("有快照", func(t *testing.T) {
		r, _ := newTestEngine(t, Deps{Snapshots: fakeSnapshots{st: amp.Status{MainVolume: 42}, at: time.Now()}})
		rr := do(r, http.MethodGet, "/api/snapshots/latest", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"main_volume":42`)
	})
}

func TestAuthOnRoutes(t *testing.T) {
	r, _ := newTestEngine(t, Deps{Auth: middleware.AuthConfig{Enabled: true, APIKeys: []string{"k_123456789"}}})
	rr := do(r, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-API-Key", "k_123456789")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
