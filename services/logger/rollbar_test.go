package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())

	usr := user.User{ID: 5, Username: "sam"}
	extras := map[string]interface{}{"setting": "slidescount"}
	args := logger.prepare("saving settings", []interface{}{errors.New("boom"), usr, extras, &user.User{ID: 2}})
	assert.Equal(t, []interface{}{"saving settings", errors.New("boom"), extras}, args)

	logger.Warn("saving settings", errors.New("boom"), usr)
	assert.Equal(t, "WARN: saving settings\nboom\n", buf.String())
}
