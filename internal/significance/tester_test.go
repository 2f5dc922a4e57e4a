package significance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfarm/seasonal-edge/internal/seasonal"
)

func groupsWithOneOutlier() []seasonal.Group {
	// Eleven groups hovering around zero and one clearly shifted group,
	// all with low within-group variance.
	groups := make([]seasonal.Group, 0, 12)
	for i := 0; i < 11; i++ {
		groups = append(groups, seasonal.Group{
			Bucket: i,
			Label:  fmt.Sprintf("bucket-%d", i),
			Values: []float64{-0.002, 0.001, 0.002, -0.001, 0.0005},
		})
	}
	groups = append(groups, seasonal.Group{
		Bucket: 11,
		Label:  "outlier",
		Values: []float64{0.098, 0.101, 0.100, 0.102, 0.099},
	})
	return groups
}

// TestANOVA_DetectsShiftedGroup covers the reference scenario: one group
// with mean +0.10 among eleven near-zero groups must be highly significant.
func TestANOVA_DetectsShiftedGroup(t *testing.T) {
	res, err := TestSeasonality(groupsWithOneOutlier())
	require.NoError(t, err)

	assert.True(t, res.ANOVA.Significant)
	assert.Less(t, res.ANOVA.PValue, 0.05)
	assert.Greater(t, res.ANOVA.FStat, 1.0)
}

func TestANOVA_IdenticalGroupsNotSignificant(t *testing.T) {
	groups := []seasonal.Group{
		{Label: "a", Values: []float64{0.01, -0.01, 0.02, -0.02}},
		{Label: "b", Values: []float64{0.02, -0.02, 0.01, -0.01}},
		{Label: "c", Values: []float64{-0.01, 0.01, -0.02, 0.02}},
	}

	res, err := TestSeasonality(groups)
	require.NoError(t, err)
	assert.False(t, res.ANOVA.Significant)
	assert.InDelta(t, 0.0, res.ANOVA.FStat, 1e-9) // equal group means
}

func TestANOVA_TooFewGroups(t *testing.T) {
	_, err := TestSeasonality([]seasonal.Group{
		{Label: "only", Values: []float64{0.01, 0.02}},
	})
	assert.ErrorIs(t, err, ErrTooFewGroups)
}

// TestBucketTests_AgainstGrandMean the t-test compares to the overall
// average, so a bucket matching the grand mean is not significant even when
// its mean is far from zero.
func TestBucketTests_AgainstGrandMean(t *testing.T) {
	groups := []seasonal.Group{
		{Label: "matches-grand", Values: []float64{0.049, 0.050, 0.051, 0.050}},
		{Label: "also-matches", Values: []float64{0.050, 0.051, 0.049, 0.050}},
	}

	res, err := TestSeasonality(groups)
	require.NoError(t, err)

	// Grand mean is 0.05; both buckets sit on it.
	for label, bt := range res.Buckets {
		assert.False(t, bt.Significant, "bucket %s should not deviate from grand mean", label)
		assert.Equal(t, 4, bt.N)
	}
}

func TestBucketTests_FlagsDeviatingBucket(t *testing.T) {
	res, err := TestSeasonality(groupsWithOneOutlier())
	require.NoError(t, err)

	outlier, ok := res.Buckets["outlier"]
	require.True(t, ok)
	assert.True(t, outlier.Significant)
	assert.Greater(t, outlier.TStat, 0.0)
	assert.InDelta(t, 0.10, outlier.Mean, 0.005)
}

func TestBucketTests_SingleObservationExcluded(t *testing.T) {
	groups := []seasonal.Group{
		{Label: "normal", Values: []float64{0.01, 0.02, 0.03}},
		{Label: "lonely", Values: []float64{0.50}},
	}

	res, err := TestSeasonality(groups)
	require.NoError(t, err)
	_, ok := res.Buckets["lonely"]
	assert.False(t, ok)
}

func TestBucketTests_ZeroVarianceExcluded(t *testing.T) {
	groups := []seasonal.Group{
		{Label: "flat", Values: []float64{0.01, 0.01, 0.01}},
		{Label: "normal", Values: []float64{0.00, 0.02, 0.04}},
	}

	res, err := TestSeasonality(groups)
	require.NoError(t, err)
	_, ok := res.Buckets["flat"]
	assert.False(t, ok)
}
