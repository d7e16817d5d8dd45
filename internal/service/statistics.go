package service

import "github.com/unitrack/attendance-api/internal/models"

// attendanceRate returns 100 * attended / total rounded to two decimals.
// Present and late both count as attended; an empty population yields 0.
func attendanceRate(present, late, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(present+late) / float64(total) * 100)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// Summarize aggregates a set of attendance records into counts, the
// attendance percentage and the average of the recorded marks.
func Summarize(records []models.Attendance) models.AttendanceSummary {
	counts := make(map[models.AttendanceStatus]int, 5)
	var markSum float64
	var markCount int
	for _, rec := range records {
		counts[rec.Status]++
		if rec.MarksObtained != nil {
			markSum += *rec.MarksObtained
			markCount++
		}
	}
	summary := summaryFromCounts(counts)
	if markCount > 0 {
		summary.AverageMarks = round2(markSum / float64(markCount))
	}
	return summary
}

// summaryFromCounts builds a summary from per-status counts. AverageMarks is
// left at zero; callers with marks data fill it in.
func summaryFromCounts(counts map[models.AttendanceStatus]int) models.AttendanceSummary {
	summary := models.AttendanceSummary{
		PresentCount: counts[models.AttendanceStatusPresent],
		AbsentCount:  counts[models.AttendanceStatusAbsent],
		LateCount:    counts[models.AttendanceStatusLate],
		ExcusedCount: counts[models.AttendanceStatusExcused],
		PartialCount: counts[models.AttendanceStatusPartial],
	}
	summary.TotalStudents = summary.PresentCount + summary.AbsentCount +
		summary.LateCount + summary.ExcusedCount + summary.PartialCount
	summary.AttendancePercentage = attendanceRate(summary.PresentCount, summary.LateCount, summary.TotalStudents)
	return summary
}

// Classify maps an attendance percentage onto its qualitative band.
func Classify(percentage float64) models.AttendanceBand {
	switch {
	case percentage >= 90:
		return models.BandExcellent
	case percentage >= 80:
		return models.BandGood
	case percentage >= 70:
		return models.BandAverage
	default:
		return models.BandPoor
	}
}
