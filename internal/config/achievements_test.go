package config_test

import (
	"errors"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/chimeralabs/accolade/internal/config"
	"github.com/chimeralabs/accolade/internal/domain/model"
)

func TestLoadAchievements(t *testing.T) {
	convey.Convey("Given an achievement definitions file", t, func() {
		convey.Convey("When loading a well-formed file", func() {
			yamlContent := `
achievements:
  - id: weekly_hustle
    name: Weekly Hustle
    category: economy
    rarity: uncommon
    trigger: product_sold
    target: 25
    points: 40
    reset_cron: "0 0 * * 1"
  - id: silent_partner
    name: Silent Partner
    category: economy
    rarity: rare
    trigger: currency_earned
    target: 100000
    points: 120
    secret: true
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			defs, err := config.LoadAchievements(tmpFile)

			convey.Convey("Then it should decode every definition", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(defs, convey.ShouldHaveLength, 2)

				convey.So(defs[0].ID, convey.ShouldEqual, "weekly_hustle")
				convey.So(defs[0].Category, convey.ShouldEqual, model.CategoryEconomy)
				convey.So(defs[0].Rarity, convey.ShouldEqual, model.RarityUncommon)
				convey.So(defs[0].Target, convey.ShouldEqual, 25.0)
				convey.So(defs[0].ResetCron, convey.ShouldEqual, "0 0 * * 1")
				convey.So(defs[0].Secret, convey.ShouldBeFalse)

				convey.So(defs[1].ID, convey.ShouldEqual, "silent_partner")
				convey.So(defs[1].Secret, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file has no achievements key", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			defs, err := config.LoadAchievements(tmpFile)

			convey.Convey("Then it should return an empty set", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(defs, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.LoadAchievements("/nonexistent/achievements.yaml")

			convey.Convey("Then it should wrap the load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file is not valid YAML", func() {
			tmpFile := createTempConfigFile("achievements: [unterminated")
			defer func() { _ = os.Remove(tmpFile) }()

			_, err := config.LoadAchievements(tmpFile)

			convey.Convey("Then it should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}
