package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/rfpstudio/rfpflow/pkg/utils/logging"
)

func TestLevels(t *testing.T) {
	testCases := []struct {
		level      string
		debugShown bool
		infoShown  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"ERROR", false, false},
		{"bogus", false, true}, // falls back to info
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, "console", buf)

			logger.Debug("debug line")
			logger.Info("info line")
			logger.Error("error line")

			out := buf.String()
			if tc.debugShown {
				gt.S(t, out).Contains("debug line")
			} else {
				gt.S(t, out).NotContains("debug line")
			}
			if tc.infoShown {
				gt.S(t, out).Contains("info line")
			} else {
				gt.S(t, out).NotContains("info line")
			}
			gt.S(t, out).Contains("error line")
		})
	}
}

func TestJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", "json", buf)

	logger.Info("request handled", "path", "/rfps", "status", 200)

	var record map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	gt.Equal(t, record["msg"], "request handled")
	gt.Equal(t, record["path"], "/rfps")
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", "console", buf).With("component", "router")

	ctx := logging.With(context.Background(), logger)
	retrieved := logging.From(ctx)
	gt.Equal(t, retrieved, logger)

	retrieved.Info("routed task")
	gt.S(t, buf.String()).Contains("routed task")
	gt.S(t, buf.String()).Contains("router")
}

func TestFromWithoutLogger(t *testing.T) {
	gt.V(t, logging.From(context.Background())).NotNil()
}

func TestSetDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	replacement := logging.New("debug", "console", buf)
	logging.SetDefault(replacement)

	gt.Equal(t, logging.Default(), replacement)
	logging.From(context.Background()).Info("via default")
	gt.S(t, buf.String()).Contains("via default")
}
