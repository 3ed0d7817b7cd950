package berth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-go/berth/pkg/berth"
	"github.com/berth-go/berth/pkg/berth/berthtest"
)

func TestScanPlan(t *testing.T) {
	fixture := &cacheFixture{Cache: berthtest.NewFakeResource("redis:7.2")}

	plan, err := berth.ScanPlan(fixture)
	require.NoError(t, err)

	assert.Equal(t, fqName(fixture), plan.Declaration)
	require.Equal(t, 1, plan.Fields.Len())
	assert.Equal(t, "Cache", plan.Fields.Keys()[0].Name)
	require.Equal(t, 1, plan.Methods.Len())
	assert.Equal(t, "Props", plan.Methods.Keys()[0].Name)
}

func TestScanPlanIsDeterministic(t *testing.T) {
	fixture := &derivedA{baseFixture{Shared: berthtest.NewFakeResource("postgres:16")}}

	first, err := berth.ScanPlan(fixture)
	require.NoError(t, err)
	second, err := berth.ScanPlan(fixture)
	require.NoError(t, err)

	assert.Equal(t, first.Declaration, second.Declaration)
	assert.Equal(t, first.Fields.Keys(), second.Fields.Keys())
	assert.Equal(t, first.Methods.Keys(), second.Methods.Keys())
}

func TestScanPlanPropagatesValidation(t *testing.T) {
	_, err := berth.ScanPlan(&valueFieldFixture{})
	var verr *berth.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = berth.ScanPlan(&brokenMethodFixture{Cache: berthtest.NewFakeResource("redis:7.2")})
	assert.ErrorAs(t, err, &verr)

	_, err = berth.ScanPlan(nil)
	assert.Error(t, err)
}
