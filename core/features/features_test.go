package features_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregoryekhator/debonairkent/core/features"
	testutil "github.com/gregoryekhator/debonairkent/tests"
)

func TestMyCourses(t *testing.T) {
	testutil.FreezeTime(t)
	h := testutil.NewHost(t, false)
	ctx := context.Background()

	data, err := h.Features.MyCourses(ctx, h.User(t, testutil.StudentID), features.MyCoursesMax)
	require.NoError(t, err)
	assert.Equal(t, true, data["hasmycourses"])

	courses := data["mycourses"].([]map[string]interface{})
	require.Len(t, courses, 2)

	bio, chem := courses[0], courses[1]
	assert.Equal(t, 2, bio["id"])
	assert.Equal(t, true, bio["islastaccessed"])
	assert.Equal(t, true, bio["inprogress"])
	assert.Equal(t, false, bio["iscomplete"])
	badges := bio["badges"].([]map[string]interface{})
	if assert.Len(t, badges, 1) {
		assert.Equal(t, "Biology explorer", badges[0]["name"])
		assert.Equal(t, "https://lms.test/badges/badge.php?hash=9ac3e7", badges[0]["url"])
	}

	assert.NotContains(t, chem, "islastaccessed")
	assert.Equal(t, true, chem["iscomplete"])
	assert.Equal(t, false, chem["inprogress"])
	assert.NotContains(t, chem, "badges")

	data, err = h.Features.MyCourses(ctx, h.User(t, testutil.StudentID), 1)
	require.NoError(t, err)
	assert.Len(t, data["mycourses"], 1)
}

func TestMyCoursesExpiredBadge(t *testing.T) {
	testutil.FreezeTime(t)
	features.NowFunc = func() time.Time { return time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC) }
	h := testutil.NewHost(t, false)

	data, err := h.Features.MyCourses(context.Background(), h.User(t, testutil.StudentID), 0)
	require.NoError(t, err)
	badges := data["mycourses"].([]map[string]interface{})[0]["badges"].([]map[string]interface{})
	assert.Equal(t, "Biology explorer(expired)", badges[0]["name"])
}

func TestMyCoursesWithoutCourses(t *testing.T) {
	h := testutil.NewHost(t, false)

	data, err := h.Features.MyCourses(context.Background(), h.User(t, 7), features.MyCoursesMax)
	require.NoError(t, err)
	assert.Equal(t, false, data["hasmycourses"])
	assert.Empty(t, data["mycourses"])
}

func TestUpcomingCertifications(t *testing.T) {
	testutil.FreezeTime(t)
	ctx := context.Background()

	h := testutil.NewHost(t, true)
	data, err := h.Features.UpcomingCertifications(ctx, h.User(t, testutil.StudentID))
	require.NoError(t, err)
	assert.Equal(t, "https://lms.test/theme/image.php/university/block_sl_upcomingcertifications/1/logo-circles", data["featureimage"])
	assert.Equal(t, true, data["hascertifications"])

	certs := data["certifications"].([]map[string]interface{})
	require.Len(t, certs, 1)
	assert.Equal(t, "Lab safety", certs[0]["name"])
	assert.Equal(t, "https://lms.test/totara/program/required.php?id=1", certs[0]["link"])
	assert.Equal(t, "31 January 2024", certs[0]["duedate"])
	assert.Equal(t, true, certs[0]["hasexpired"])

	h = testutil.NewHost(t, false)
	data, err = h.Features.UpcomingCertifications(ctx, h.User(t, testutil.StudentID))
	require.NoError(t, err)
	assert.Equal(t, false, data["hascertifications"])
}
