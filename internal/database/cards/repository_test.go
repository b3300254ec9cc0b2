package cards

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cards.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Student{}, &entities.LibraryCard{}))
	return db
}

func newCard(studentID uint) *entities.LibraryCard {
	start := calendar.MustParse("2025-09-01")
	return &entities.LibraryCard{
		StudentID: studentID,
		StartDate: start,
		EndDate:   start.AddYears(1),
		Status:    entities.CardStatusPending,
	}
}

func TestRepository_OneLiveCardPerStudent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	student := &entities.Student{Name: "Linus", Email: "linus@example.edu"}
	require.NoError(t, db.Create(student).Error)

	first := newCard(student.ID)
	require.NoError(t, repo.CreateCard(first))
	assert.ErrorIs(t, repo.CreateCard(newCard(student.ID)), gorm.ErrDuplicatedKey)

	require.NoError(t, repo.DeleteCard(first.ID))
	_, err := repo.GetCard(first.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindCardByStudent(student.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	second := newCard(student.ID)
	require.NoError(t, repo.CreateCard(second), "a deleted card frees the slot")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRepository_UpdateCard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	student := &entities.Student{Name: "Ken", Email: "ken@example.edu"}
	require.NoError(t, db.Create(student).Error)

	card := newCard(student.ID)
	require.NoError(t, repo.CreateCard(card))

	card.Status = entities.CardStatusAccepted
	card.EndDate = card.EndDate.AddYears(1)
	require.NoError(t, repo.UpdateCard(card))

	found, err := repo.ForUpdate().FindCardByStudent(student.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entities.CardStatusAccepted, found.Status)
	assert.Equal(t, calendar.MustParse("2027-09-01"), found.EndDate)

	missing := newCard(student.ID)
	missing.ID = 999
	assert.ErrorIs(t, repo.UpdateCard(missing), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.DeleteCard(999), gorm.ErrRecordNotFound)
}
