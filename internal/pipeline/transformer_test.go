package pipeline_test

import (
	"context"
	"testing"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-gcm-service/internal/pipeline"
)

func TestNotificationRequestTransformer_Malformed(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
	}{
		{name: "Not JSON", payload: []byte("not-json")},
		{name: "Truncated JSON", payload: []byte(`{"this is not valid json"`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: "msg-1", Payload: tc.payload},
			}

			req, skip, err := pipeline.NotificationRequestTransformer(context.Background(), msg)

			require.Error(t, err)
			assert.Nil(t, req)
			assert.True(t, skip)
			assert.Contains(t, err.Error(), "failed to unmarshal notification request from message msg-1")
		})
	}
}
