// Package dbtest поднимает изолированную SQLite-базу в памяти для тестов.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/travel-core/internal/model"
)

// Open создаёт новую базу со всей схемой. База живёт до конца теста.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Одна база в памяти на одно соединение, как и в db.NewGormDB для sqlite.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db), "migrate")
	return db
}

// Fixture — минимальный маршрут: поставщик, маршрут с одним днём и его активности.
type Fixture struct {
	Provider  model.Provider
	Itinerary model.Itinerary
	Day       model.ItineraryDay
	Places    map[string]model.Place
}

// Seed создаёт поставщика, маршрут с одним днём и места с указанными категориями.
// Ключ в places — название места, значение — категория.
func Seed(t *testing.T, db *gorm.DB, places map[string]string) *Fixture {
	t.Helper()

	f := &Fixture{
		Provider: model.Provider{DisplayName: "Harbour Tours", ExternalRef: "harbour"},
		Places:   make(map[string]model.Place, len(places)),
	}
	require.NoError(t, db.Create(&f.Provider).Error)

	f.Itinerary = model.Itinerary{UserID: uuid.New(), Title: "Sydney Trip"}
	require.NoError(t, db.Create(&f.Itinerary).Error)

	f.Day = model.ItineraryDay{
		ItineraryID: f.Itinerary.ID,
		DayNumber:   1,
		Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&f.Day).Error)

	for name, category := range places {
		p := model.Place{Name: name, Category: category, Indoor: category == "museum" || category == "aquarium"}
		require.NoError(t, db.Create(&p).Error)
		f.Places[name] = p
	}
	return f
}

// AddActivity добавляет активность в день фикстуры. startHour — час начала в UTC, длительность час.
func (f *Fixture) AddActivity(t *testing.T, db *gorm.DB, typ model.ActivityType, place string, startHour int) model.Activity {
	t.Helper()

	start := f.Day.Date.Add(time.Duration(startHour) * time.Hour)
	a := model.Activity{
		DayID:     f.Day.ID,
		Type:      typ,
		Name:      place,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
	if p, ok := f.Places[place]; ok {
		id := p.ID
		a.PlaceID = &id
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}
