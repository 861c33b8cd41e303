package service

import (
	"math"
	"testing"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFeedInValue(t *testing.T) {

	assert := assert.New(t)

	ctrl := &DefaultFeedInControlLogic{Logger: zap.NewNop()}

	assert.EqualValues(1500, ctrl.FeedInValue(1500, 0))
	assert.EqualValues(1400, ctrl.FeedInValue(1500, -100))
	assert.EqualValues(-200, ctrl.FeedInValue(-300, 100))
	assert.EqualValues(1235, ctrl.FeedInValue(1234.6, 0), "rounded")
}

func TestFeedInValueInverted(t *testing.T) {

	assert := assert.New(t)

	ctrl := &DefaultFeedInControlLogic{InvertPower: true, Logger: zap.NewNop()}

	// grid export reported as negative becomes positive surplus
	assert.EqualValues(2000, ctrl.FeedInValue(-2000, 0))
	assert.EqualValues(1900, ctrl.FeedInValue(-2000, -100))
}

func TestFeedInValueClamped(t *testing.T) {

	assert := assert.New(t)

	ctrl := &DefaultFeedInControlLogic{Logger: zap.NewNop()}

	assert.EqualValues(domain.FEEDIN_MAX_WATT, ctrl.FeedInValue(45000, 0))
	assert.EqualValues(-domain.FEEDIN_MAX_WATT, ctrl.FeedInValue(-29950, -100))
	assert.EqualValues(0, ctrl.FeedInValue(math.NaN(), 100))
}
