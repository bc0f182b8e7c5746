package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coi-cli/internal/model"
	"github.com/sells-group/coi-cli/pkg/portal/mocks"
)

var today = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestRunValidate_PrintsDecision(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runValidate(context.Background(), nil, nil, compliantDoc("d1", "p1"), today, &buf))

	var d model.Decision
	require.NoError(t, json.Unmarshal(buf.Bytes(), &d))
	assert.True(t, d.Status)
}

func TestRunValidate_PostsDecision(t *testing.T) {
	doc := compliantDoc("d1", "p1")
	doc.ExpireDate = "2100-01-01"

	pc := mocks.NewMockClient(t)
	pc.On("PostDecision", mock.Anything, "d1", mock.MatchedBy(func(d model.Decision) bool {
		return !d.Status && d.Message != ""
	})).Return(nil).Once()

	var buf bytes.Buffer
	require.NoError(t, runValidate(context.Background(), nil, pc, doc, today, &buf))
	assert.Contains(t, buf.String(), "does not match")
}

func TestRunValidate_PostFailure(t *testing.T) {
	pc := mocks.NewMockClient(t)
	pc.On("PostDecision", mock.Anything, "d1", mock.Anything).Return(errors.New("portal down")).Once()

	var buf bytes.Buffer
	err := runValidate(context.Background(), nil, pc, compliantDoc("d1", "p1"), today, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post decision for d1")
}
