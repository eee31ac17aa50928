package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitLevelsAndFormat(t *testing.T) {
	Init("prod", "warn")
	assert.Equal(t, logrus.WarnLevel, L().GetLevel())
	_, isJSON := L().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	Init("dev", "not-a-level")
	assert.Equal(t, logrus.InfoLevel, L().GetLevel())

	var buf bytes.Buffer
	L().SetOutput(&buf)
	WithField("request_id", "r1").Info("✅ hello")
	assert.Contains(t, buf.String(), "request_id=r1")
}
