package logger

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestContextWithRequestID(t *testing.T) {
	ctx, rlog := ContextWithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", rlog.Data["request_id"])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))

	ctx, _ = ContextWithUser(ctx, 7)
	entry := FromContext(ctx)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, uint(7), entry.Data["user_id"])
}

func TestContextWithRequestIDGeneratesOne(t *testing.T) {
	ctx, _ := ContextWithRequestID(context.Background(), "")
	assert.NotEmpty(t, RequestIDFromContext(ctx))
}

func TestFromContextFallsBack(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestInitLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	Init("debug", true)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	Init("nonsense", false)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
