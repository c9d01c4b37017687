package events_test

import (
	"context"
	"testing"

	"career-catalog-backend/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledPublisherDropsMessages(t *testing.T) {
	p, err := events.NewPublisher("", "")
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), "view_career", map[string]string{"id": "1"}))
	assert.NoError(t, p.Close())
}
