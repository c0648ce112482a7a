package normalize_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func record() model.ActivityRecord {
	return model.ActivityRecord{
		TeacherID:    " T1 ",
		TeacherName:  "  Asha Rao ",
		Grade:        " 7",
		Subject:      "Math ",
		ActivityType: "Question Paper",
		OccurredOn:   "2024-01-05 10:15:00",
	}
}

func TestNormalize(t *testing.T) {
	Convey("Given a well formed record", t, func() {
		e, err := normalize.Normalize(record())

		Convey("Then fields are trimmed and derived", func() {
			So(err, ShouldBeNil)
			So(e.TeacherID, ShouldEqual, "T1")
			So(e.TeacherName, ShouldEqual, "Asha Rao")
			So(e.Grade, ShouldEqual, "7")
			So(e.Subject, ShouldEqual, "Math")
			So(e.Kind, ShouldEqual, model.KindQuestionPaper)
			So(e.MonthKey, ShouldEqual, "2024-01")
			So(e.DateKey(), ShouldEqual, "2024-01-05")
			So(e.Date, ShouldEqual, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
		})
	})

	Convey("Given the accepted date layouts", t, func() {
		for in, month := range map[string]string{
			"2024-02-29":                "2024-02",
			"2024-12-31 23:59:59":       "2024-12",
			"2023-06-01T08:00:00Z":      "2023-06",
			"2023-06-30T23:30:00-05:00": "2023-06",
			"2023/09/04":                "2023-09",
			"2023-05-31 22:10:00.5+00":  "2023-05",
		} {
			r := record()
			r.OccurredOn = in
			e, err := normalize.Normalize(r)

			So(err, ShouldBeNil)
			So(e.MonthKey, ShouldEqual, month)
		}
	})

	Convey("Given a date with a zone offset near midnight", t, func() {
		r := record()
		r.OccurredOn = "2023-06-30T23:30:00-05:00"
		e, err := normalize.Normalize(r)

		Convey("Then the wall-clock date is kept", func() {
			So(err, ShouldBeNil)
			So(e.DateKey(), ShouldEqual, "2023-06-30")
		})
	})

	Convey("Given malformed records", t, func() {
		cases := []struct {
			name  string
			mut   func(*model.ActivityRecord)
			field string
		}{
			{"blank teacher", func(r *model.ActivityRecord) { r.TeacherName = "   " }, "teacher_name"},
			{"empty grade", func(r *model.ActivityRecord) { r.Grade = "" }, "grade"},
			{"empty subject", func(r *model.ActivityRecord) { r.Subject = "\t" }, "subject"},
			{"unknown kind", func(r *model.ActivityRecord) { r.ActivityType = "homework" }, "activity_type"},
			{"bad date", func(r *model.ActivityRecord) { r.OccurredOn = "yesterday" }, "occurred_on"},
			{"impossible date", func(r *model.ActivityRecord) { r.OccurredOn = "2023-02-30" }, "occurred_on"},
		}

		for _, c := range cases {
			Convey("When the record has a "+c.name, func() {
				r := record()
				c.mut(&r)
				_, err := normalize.Normalize(r)

				Convey("Then a ValidationError names the field", func() {
					So(err, ShouldNotBeNil)
					So(errors.Is(err, normalize.ErrInvalidRecord), ShouldBeTrue)
					var verr *normalize.ValidationError
					So(errors.As(err, &verr), ShouldBeTrue)
					So(verr.Field, ShouldEqual, c.field)
				})
			})
		}
	})
}

func TestNormalizeBatch(t *testing.T) {
	Convey("Given a batch with one bad record in the middle", t, func() {
		bad := record()
		bad.ActivityType = "exam"
		res := normalize.NormalizeBatch([]model.ActivityRecord{record(), bad, record()})

		Convey("Then the batch is not aborted", func() {
			So(len(res.Events), ShouldEqual, 2)
			So(res.Rejected(), ShouldEqual, 1)
			So(res.Rejections[0].Index, ShouldEqual, 1)
			So(res.Rejections[0].Err.Field, ShouldEqual, "activity_type")
		})
	})

	Convey("Given an empty batch", t, func() {
		res := normalize.NormalizeBatch(nil)

		Convey("Then the result is empty, not an error", func() {
			So(res.Events, ShouldBeEmpty)
			So(res.Rejected(), ShouldEqual, 0)
		})
	})
}
