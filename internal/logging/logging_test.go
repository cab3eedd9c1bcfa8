package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func bufferedLogger() (*logrus.Logger, *bytes.Buffer) {
	logger := SetupLogging()
	buf := &bytes.Buffer{}
	logger.Out = buf
	return logger, buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		assert.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestSetupLogging_UsesLoglevelKey(t *testing.T) {
	logger, buf := bufferedLogger()

	logger.Info("hello")

	entries := lines(t, buf)
	assert.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0]["loglevel"])
	assert.Equal(t, "hello", entries[0]["msg"])
}

func TestLogData_LogIncludesDataAndTimings(t *testing.T) {
	logger, buf := bufferedLogger()
	logData := NewLogData(logger)

	logData.AddData("userId", "user-1")
	logData.AddTiming("storeMs")()
	logData.Log().Info("done")

	entries := lines(t, buf)
	assert.Equal(t, "user-1", entries[0]["userId"])
	assert.Contains(t, entries[0], "storeMs")
}

func TestGetLogData_MissingReturnsNil(t *testing.T) {
	assert.Nil(t, GetLogData(context.Background()))
}

func TestGetLogData_RoundTrip(t *testing.T) {
	logData := NewLogData(logrus.New())
	ctx := WithLogData(context.Background(), logData)
	assert.Same(t, logData, GetLogData(ctx))
}

func TestLoggingWrapper_FreshDataPerRequest(t *testing.T) {
	logger, buf := bufferedLogger()
	calls := 0
	handler := LoggingWrapper("Status", logger, func(w http.ResponseWriter, req *http.Request, logData *LogData) error {
		calls++
		if calls == 1 {
			logData.AddData("first", true)
		}
		assert.Same(t, logData, GetLogData(req.Context()))
		w.WriteHeader(http.StatusOK)
		return nil
	})

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))

	var completes []map[string]interface{}
	for _, entry := range lines(t, buf) {
		if entry["msg"] == "Handler.Status.Complete" {
			completes = append(completes, entry)
		}
	}
	assert.Len(t, completes, 2)
	assert.Equal(t, true, completes[0]["first"])
	assert.NotContains(t, completes[1], "first")
}

func TestLoggingWrapper_Error(t *testing.T) {
	logger, buf := bufferedLogger()
	handler := LoggingWrapper("Status", logger, func(w http.ResponseWriter, req *http.Request, logData *LogData) error {
		w.WriteHeader(http.StatusBadRequest)
		return errors.New("bad method")
	})

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/status", nil))

	entries := lines(t, buf)
	last := entries[len(entries)-1]
	assert.Equal(t, "Handler.Status.Error", last["msg"])
	assert.Equal(t, "error", last["loglevel"])
	assert.Equal(t, "bad method", last["error"])
}

type pingOutput struct {
	Body struct {
		Seen bool `json:"seen"`
	}
}

func TestMiddleware_AttachesAndFlushesLogData(t *testing.T) {
	logger, buf := bufferedLogger()
	_, api := humatest.New(t)
	api.UseMiddleware(Middleware(logger))
	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
	}, func(ctx context.Context, input *struct{}) (*pingOutput, error) {
		out := &pingOutput{}
		if logData := GetLogData(ctx); logData != nil {
			logData.AddData("pinged", true)
			out.Body.Seen = true
		}
		return out, nil
	})

	resp := api.Get("/ping")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"seen":true`)

	var complete map[string]interface{}
	for _, entry := range lines(t, buf) {
		if entry["msg"] == "Handler.ping.Complete" {
			complete = entry
		}
	}
	assert.NotNil(t, complete)
	assert.Equal(t, true, complete["pinged"])
	assert.Equal(t, "/ping", complete["path"])
	assert.EqualValues(t, http.StatusOK, complete["status"])
}
