package model_test

import (
	"testing"

	"github.com/ocumetry/eyelid/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestModelKey(t *testing.T) {
	Convey("Given model keys", t, func() {
		Convey("When rendering the string form", func() {
			k := model.ModelKey{Kind: model.KindSmooth, Variant: model.Left, Version: 2}

			Convey("Then it should be a stable identifier", func() {
				So(k.String(), ShouldEqual, "smooth_left_v2")
			})
		})

		Convey("When comparing keys", func() {
			a := model.ModelKey{Kind: model.KindBinary, Variant: model.Combined, Version: 1}
			b := model.ModelKey{Kind: model.KindBinary, Variant: model.Combined, Version: 1}
			c := model.ModelKey{Kind: model.KindBinary, Variant: model.Combined, Version: 2}

			Convey("Then equal fields should compare equal", func() {
				So(a, ShouldResemble, b)
				So(a, ShouldNotResemble, c)
			})
		})
	})
}

func TestEnums(t *testing.T) {
	Convey("Given the domain enumerations", t, func() {
		Convey("When validating eye variants", func() {
			So(model.Combined.Valid(), ShouldBeTrue)
			So(model.Left.Valid(), ShouldBeTrue)
			So(model.Right.Valid(), ShouldBeTrue)
			So(model.EyeVariant("middle").Valid(), ShouldBeFalse)
		})

		Convey("When validating phases", func() {
			So(model.PhaseClosed.Valid(), ShouldBeTrue)
			So(model.PhaseOpen.Valid(), ShouldBeTrue)
			So(model.PhaseBlink.Valid(), ShouldBeTrue)
			So(model.Phase("squint").Valid(), ShouldBeFalse)
		})

		Convey("When listing enumerations", func() {
			So(model.Variants(), ShouldHaveLength, 3)
			So(model.Phases(), ShouldHaveLength, 3)
			So(model.Kinds(), ShouldHaveLength, 2)
		})
	})
}
