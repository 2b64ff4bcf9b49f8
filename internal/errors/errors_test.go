package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCodeOfAppError(t *testing.T) {
	base := InvalidParameter("quantile must be in (0,1), got %v", 1.5)
	wrapped := Wrap(base, "identify outliers")

	assert.Equal(t, CodeInvalidParameter, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "identify outliers")
	assert.Contains(t, wrapped.Error(), "quantile must be in (0,1)")
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	wrapped := Wrapf(stderrors.New("disk full"), "write %s", "summary.json")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Nil(t, Wrap(nil, "noop"))
}

func TestGetCode_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("claim 2: %w", InsufficientData("need at least 2 prices"))
	assert.True(t, HasCode(err, CodeInsufficientData))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("x")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeNotFound, stderrors.New("ticker missing"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, "ticker missing", err.Error()[:len("ticker missing")])
}
