package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitrack/attendance-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestSummarizeCountsAndPercentage(t *testing.T) {
	records := []models.Attendance{
		{Status: models.AttendanceStatusPresent, MarksObtained: floatPtr(80), MaxMarks: floatPtr(100)},
		{Status: models.AttendanceStatusLate, MarksObtained: floatPtr(60), MaxMarks: floatPtr(100)},
		{Status: models.AttendanceStatusAbsent},
	}
	summary := Summarize(records)

	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, 1, summary.PresentCount)
	assert.Equal(t, 1, summary.LateCount)
	assert.Equal(t, 1, summary.AbsentCount)
	// 2 of 3 attended
	assert.InDelta(t, 66.67, summary.AttendancePercentage, 0.01)
	assert.InDelta(t, 70.0, summary.AverageMarks, 0.01)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.TotalStudents)
	assert.Zero(t, summary.AttendancePercentage)
	assert.Zero(t, summary.AverageMarks)
}

func TestSummarizeOrderInvariant(t *testing.T) {
	records := []models.Attendance{
		{Status: models.AttendanceStatusPresent, MarksObtained: floatPtr(40), MaxMarks: floatPtr(50)},
		{Status: models.AttendanceStatusAbsent},
		{Status: models.AttendanceStatusLate, MarksObtained: floatPtr(30), MaxMarks: floatPtr(50)},
	}
	reversed := []models.Attendance{records[2], records[1], records[0]}
	assert.Equal(t, Summarize(records), Summarize(reversed))
}

func TestSummarizeLateNotPenalized(t *testing.T) {
	records := []models.Attendance{
		{Status: models.AttendanceStatusLate},
		{Status: models.AttendanceStatusLate},
	}
	summary := Summarize(records)
	assert.InDelta(t, 100.0, summary.AttendancePercentage, 0.001)
}

func TestSummarizeExcusedAndPartialCountAgainst(t *testing.T) {
	records := []models.Attendance{
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusExcused},
		{Status: models.AttendanceStatusPartial},
		{Status: models.AttendanceStatusAbsent},
	}
	summary := Summarize(records)
	assert.InDelta(t, 25.0, summary.AttendancePercentage, 0.001)
	assert.Equal(t, 1, summary.ExcusedCount)
	assert.Equal(t, 1, summary.PartialCount)
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		pct  float64
		want models.AttendanceBand
	}{
		{100, models.BandExcellent},
		{90, models.BandExcellent},
		{89.99, models.BandGood},
		{80, models.BandGood},
		{79.99, models.BandAverage},
		{70, models.BandAverage},
		{69.99, models.BandPoor},
		{0, models.BandPoor},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.pct), "pct=%v", tc.pct)
	}
}

func TestMarkPercentage(t *testing.T) {
	rec := models.Attendance{MarksObtained: floatPtr(45), MaxMarks: floatPtr(60)}
	pct := rec.MarkPercentage()
	assert.NotNil(t, pct)
	assert.InDelta(t, 75.0, *pct, 0.001)

	assert.Nil(t, models.Attendance{MarksObtained: floatPtr(45)}.MarkPercentage())
	assert.Nil(t, models.Attendance{}.MarkPercentage())
}
