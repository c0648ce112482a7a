package report_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/savra/internal/domain/aggregate"
	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/report"
	"github.com/okian/savra/internal/domain/scoring"
	"github.com/okian/savra/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func ev(name, grade, subject string, kind model.ActivityKind, date string) model.NormalizedEvent {
	d, err := time.Parse(model.DateKeyLayout, date)
	if err != nil {
		panic(err)
	}
	return model.NormalizedEvent{
		TeacherID: "id-" + name, TeacherName: name, Grade: grade, Subject: subject,
		Kind: kind, OccurredAt: d, Date: d, MonthKey: d.Format(model.MonthKeyLayout),
	}
}

func build(events ...model.NormalizedEvent) *report.Builder {
	agg := aggregate.Aggregate(events, 0)
	return report.NewBuilder(agg, scoring.NewScorer().Leaderboard(agg.Profiles()))
}

func TestGradeDetail(t *testing.T) {
	Convey("Given activity in grade G1", t, func() {
		b := build(
			ev("T1", "G1", "Math", model.KindAssessment, "2024-01-05"),
			ev("T1", "G1", "Math", model.KindLesson, "2024-01-06"),
			ev("T2", "G1", "Sci", model.KindAssessment, "2024-01-07"),
		)

		Convey("When the grade is requested", func() {
			g, err := b.GradeDetail("G1")

			Convey("Then the breakdown matches", func() {
				So(err, ShouldBeNil)
				So(g.Grade, ShouldEqual, "G1")
				So(g.TotalAssessments, ShouldEqual, 2)
				So(g.TeacherData, ShouldResemble, []types.TeacherCount{{Teacher: "T1", Count: 1}, {Teacher: "T2", Count: 1}})
				So(g.Teachers, ShouldResemble, []string{"T1", "T2"})
			})
		})

		Convey("When an unknown grade is requested", func() {
			_, err := b.GradeDetail("G9")

			Convey("Then a not-found error is returned", func() {
				So(errors.Is(err, report.ErrGradeNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given uneven assessment counts", t, func() {
		b := build(
			ev("Amy", "7", "Math", model.KindAssessment, "2024-01-05"),
			ev("Bob", "7", "Math", model.KindAssessment, "2024-01-05"),
			ev("Bob", "7", "Math", model.KindAssessment, "2024-01-06"),
			ev("Cat", "7", "Math", model.KindAssessment, "2024-01-05"),
			ev("Dan", "7", "Math", model.KindLesson, "2024-01-05"),
		)
		g, err := b.GradeDetail(" 7 ")

		Convey("Then teacher_data is ordered by count then name", func() {
			So(err, ShouldBeNil)
			So(g.TeacherData, ShouldResemble, []types.TeacherCount{
				{Teacher: "Bob", Count: 2}, {Teacher: "Amy", Count: 1}, {Teacher: "Cat", Count: 1},
			})
			So(g.Teachers, ShouldResemble, []string{"Amy", "Bob", "Cat", "Dan"})
		})
	})
}

func TestTeacherDetail(t *testing.T) {
	Convey("Given a teacher across grades and subjects", t, func() {
		b := build(
			ev("T1", "9", "Math", model.KindAssessment, "2024-01-05"),
			ev("T1", "10", "Sci", model.KindAssessment, "2024-01-05"),
			ev("T1", "10", "Sci", model.KindAssessment, "2024-03-02"),
			ev("T1", "9", "Math", model.KindAssessment, "2024-03-03"),
			ev("T1", "9", "Art", model.KindLesson, "2024-03-03"),
			ev("T1", "9", "Art", model.KindQuiz, "2024-03-04"),
			ev("T2", "9", "Math", model.KindQuestionPaper, "2024-02-01"),
		)

		Convey("When the teacher is requested", func() {
			d, err := b.TeacherDetail("T1")

			Convey("Then counts and sets are projected", func() {
				So(err, ShouldBeNil)
				So(d.TeacherID, ShouldEqual, "id-T1")
				So(d.Grades, ShouldResemble, []string{"9", "10"})
				So(d.Subjects, ShouldResemble, []string{"Math", "Sci"})
				So(d.AllSubjects, ShouldResemble, []string{"Art", "Math", "Sci"})
				So(d.GradeSubjectData, ShouldResemble, map[string]map[string]int{
					"9": {"Math": 2}, "10": {"Sci": 2},
				})
				So(d.Months, ShouldResemble, []string{"2024-01", "2024-03"})
				So(d.TimelineByMonth["2024-03"], ShouldResemble, map[string]int{
					"2024-03-02": 1, "2024-03-03": 2, "2024-03-04": 1,
				})
				So(d.TotalAssessments, ShouldEqual, 4)
				So(d.TotalLessons, ShouldEqual, 1)
				So(d.TotalQuizzes, ShouldEqual, 1)
				So(d.TotalQuestionPapers, ShouldEqual, 0)
				So(d.Score, ShouldEqual, 10.0)
			})

			Convey("Then a subject tie goes to the alphabetically first", func() {
				So(d.MostTaughtSubject, ShouldEqual, "Math")
			})

			Convey("Then the result does not alias the snapshot", func() {
				d.GradeSubjectData["9"]["Math"] = 99
				again, _ := b.TeacherDetail("T1")
				So(again.GradeSubjectData["9"]["Math"], ShouldEqual, 2)
			})
		})

		Convey("When a teacher without assessments is requested", func() {
			d, err := b.TeacherDetail("T2")

			Convey("Then the most taught subject is N/A", func() {
				So(err, ShouldBeNil)
				So(d.MostTaughtSubject, ShouldEqual, report.NoSubject)
				So(d.Subjects, ShouldBeEmpty)
			})
		})

		Convey("When an unknown teacher is requested", func() {
			_, err := b.TeacherDetail("Nobody")

			Convey("Then a not-found error is returned", func() {
				So(errors.Is(err, report.ErrTeacherNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestLeaderboardAndLists(t *testing.T) {
	Convey("Given two teachers with split activity", t, func() {
		var events []model.NormalizedEvent
		for i := 0; i < 10; i++ {
			events = append(events, ev("T1", "7", "Math", model.KindAssessment, "2024-01-05"))
			events = append(events, ev("T2", "8", "Sci", model.KindLesson, "2024-01-05"))
		}
		for i := 0; i < 5; i++ {
			events = append(events, ev("T2", "8", "Sci", model.KindAssessment, "2024-01-05"))
		}
		b := build(events...)

		Convey("Then the leaderboard is ranked with best and worst", func() {
			lb := b.Leaderboard()
			So(lb.Entries, ShouldHaveLength, 2)
			So(lb.Entries[0].Rank, ShouldEqual, 1)
			So(lb.Entries[0].Score, ShouldEqual, 7.0)
			So(lb.Entries[1].Score, ShouldEqual, 6.5)
			best, _ := lb.Best()
			worst, _ := lb.Worst()
			So(best.TeacherName, ShouldEqual, "T1")
			So(worst.TeacherName, ShouldEqual, "T2")
		})

		Convey("Then grades and teachers are listed", func() {
			So(b.Grades().Grades, ShouldResemble, []string{"7", "8"})
			So(b.Teachers().Teachers, ShouldResemble, []types.TeacherRef{
				{TeacherID: "id-T1", TeacherName: "T1"}, {TeacherID: "id-T2", TeacherName: "T2"},
			})
		})
	})

	Convey("Given an empty leaderboard", t, func() {
		lb := build().Leaderboard()

		Convey("Then best and worst are absent", func() {
			_, ok := lb.Best()
			So(ok, ShouldBeFalse)
			_, ok = lb.Worst()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestOverall(t *testing.T) {
	Convey("Given events spread over a gap of months", t, func() {
		b := build(
			ev("T1", "10", "Math", model.KindAssessment, "2023-11-05"),
			ev("T1", "9", "Math", model.KindLesson, "2024-02-06"),
			ev("T2", "9", "Sci", model.KindQuiz, "2024-02-07"),
			ev("T2", "9", "Sci", model.KindAssessment, "2024-02-08"),
		)
		r := b.Overall()

		Convey("Then totals cover every kind", func() {
			So(r.TotalTeachers, ShouldEqual, 2)
			So(r.TotalAssessments, ShouldEqual, 2)
			So(r.TotalLessons, ShouldEqual, 1)
			So(r.TotalQuizzes, ShouldEqual, 1)
			So(r.TotalQuestionPapers, ShouldEqual, 0)
			So(r.TotalActivities, ShouldEqual, 4)
			So(r.Grades, ShouldResemble, []string{"9", "10"})
			So(r.Subjects, ShouldResemble, []string{"Math", "Sci"})
		})

		Convey("Then charts are ordered and zero-filled", func() {
			So(r.GradeChart, ShouldResemble, types.Chart{Labels: []string{"Grade 9", "Grade 10"}, Data: []int{1, 1}})
			So(r.ActivityChart, ShouldResemble, types.Chart{
				Labels: []string{"Lesson Plan", "Quiz", "Question Paper", "Assessment"},
				Data:   []int{1, 1, 0, 2},
			})
			So(r.MonthlyChart, ShouldResemble, types.Chart{
				Labels: []string{"2023-11", "2023-12", "2024-01", "2024-02"},
				Data:   []int{1, 0, 0, 3},
			})
		})

		Convey("Then the top teacher is the leaderboard head", func() {
			So(r.TopTeacher, ShouldNotBeNil)
			So(r.TopTeacher.TeacherName, ShouldEqual, r.Leaderboard[0].TeacherName)
		})
	})

	Convey("Given no events", t, func() {
		r := build().Overall()

		Convey("Then every count is zero and top_teacher is null", func() {
			So(r.TotalTeachers, ShouldEqual, 0)
			So(r.TotalActivities, ShouldEqual, 0)
			So(r.Leaderboard, ShouldBeEmpty)
			So(r.TopTeacher, ShouldBeNil)

			raw, err := json.Marshal(r)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"leaderboard":[]`)
			So(string(raw), ShouldContainSubstring, `"top_teacher":null`)
			So(string(raw), ShouldContainSubstring, `"grades":[]`)
			So(string(raw), ShouldContainSubstring, `"monthly_chart":{"labels":[],"data":[]}`)
		})
	})

	Convey("Given a nil aggregate", t, func() {
		b := report.NewBuilder(nil, nil)

		Convey("Then it behaves as an empty snapshot", func() {
			So(b.Overall().TotalActivities, ShouldEqual, 0)
			So(b.Grades().Grades, ShouldBeEmpty)
		})
	})
}

func TestGradeChartLabels(t *testing.T) {
	Convey("Given grades already labelled with the word", t, func() {
		b := build(
			ev("T1", "Grade 10", "Math", model.KindAssessment, "2024-01-05"),
			ev("T1", "Grade 2", "Math", model.KindAssessment, "2024-01-06"),
			ev("T2", "grade 2", "Sci", model.KindAssessment, "2024-01-07"),
		)
		r := b.Overall()

		Convey("Then labels are not prefixed twice and sort by number", func() {
			So(r.Grades, ShouldResemble, []string{"Grade 2", "Grade 10", "grade 2"})
			So(r.GradeChart.Labels, ShouldResemble, []string{"Grade 2", "Grade 10", "grade 2"})
			So(report.ChartLabel("7"), ShouldEqual, "Grade 7")
			So(report.ChartLabel("KG"), ShouldEqual, "Grade KG")
		})
	})
}

func TestMonthlyChartCompleteness(t *testing.T) {
	Convey("Given months spanning a year boundary", t, func() {
		c := report.MonthlyChart(map[string]int{"2023-10": 2, "2024-03": 1})

		Convey("Then there is exactly one point per month", func() {
			So(c.Labels, ShouldResemble, []string{"2023-10", "2023-11", "2023-12", "2024-01", "2024-02", "2024-03"})
			So(c.Data, ShouldResemble, []int{2, 0, 0, 0, 0, 1})
		})
	})
}
