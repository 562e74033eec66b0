package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tripflow/pkg/domain"
)

const migrateLockID int64 = 48120731

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&TripModel{}, &MessageModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// withMigrationLock serializes migrations across instances with a pg
// advisory lock so concurrent deploys do not race on DDL.
func withMigrationLock(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrateLockID).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		return fn(tx)
	})
}

// CreateTrip stores a new trip, filling in id and timestamps.
func (s *GormStore) CreateTrip(trip domain.Trip) (domain.Trip, error) {
	now := time.Now().UTC()
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	trip.CreatedAt = now
	trip.UpdatedAt = now
	model := tripToModel(trip)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Trip{}, err
	}
	return tripFromModel(model), nil
}

// GetTrip returns one trip by ID.
func (s *GormStore) GetTrip(id string) (domain.Trip, bool, error) {
	var model TripModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Trip{}, false, nil
		}
		return domain.Trip{}, false, err
	}
	return tripFromModel(model), true, nil
}

// ListTrips returns all trips, newest first.
func (s *GormStore) ListTrips() ([]domain.Trip, error) {
	var models []TripModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	trips := make([]domain.Trip, 0, len(models))
	for _, model := range models {
		trips = append(trips, tripFromModel(model))
	}
	return trips, nil
}

// UpdateTripTitle overwrites the title of a trip and bumps updated_at.
func (s *GormStore) UpdateTripTitle(id string, title string) error {
	return s.db.Model(&TripModel{}).Where("id = ?", id).Updates(map[string]any{
		"title":      title,
		"updated_at": time.Now().UTC(),
	}).Error
}

// DeleteTrip removes a trip and its messages.
func (s *GormStore) DeleteTrip(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MessageModel{}, "trip_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&TripModel{}, "id = ?", id).Error
	})
}

// AppendMessage records a message, filling in id, default type and timestamp.
func (s *GormStore) AppendMessage(msg domain.Message) (domain.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.MessageType == "" {
		msg.MessageType = domain.TypeText
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	model := messageToModel(msg)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Message{}, err
	}
	return messageFromModel(model), nil
}

// ListMessages returns the messages of a trip in chronological order.
func (s *GormStore) ListMessages(tripID string) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Where("trip_id = ?", tripID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, messageFromModel(model))
	}
	return msgs, nil
}

func tripToModel(trip domain.Trip) TripModel {
	return TripModel{
		ID:          trip.ID,
		Title:       trip.Title,
		Destination: trip.Destination,
		StartDate:   trip.StartDate,
		EndDate:     trip.EndDate,
		UserID:      trip.UserID,
		CreatedAt:   trip.CreatedAt,
		UpdatedAt:   trip.UpdatedAt,
	}
}

func tripFromModel(model TripModel) domain.Trip {
	return domain.Trip{
		ID:          model.ID,
		Title:       model.Title,
		Destination: model.Destination,
		StartDate:   model.StartDate,
		EndDate:     model.EndDate,
		UserID:      model.UserID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	return MessageModel{
		ID:          msg.ID,
		TripID:      msg.TripID,
		Role:        msg.Role,
		Content:     msg.Content,
		MessageType: string(msg.MessageType),
		Metadata:    datatypes.JSON(msg.Metadata),
		CreatedAt:   msg.CreatedAt,
	}
}

func messageFromModel(model MessageModel) domain.Message {
	return domain.Message{
		ID:          model.ID,
		TripID:      model.TripID,
		Role:        model.Role,
		Content:     model.Content,
		MessageType: domain.MessageType(model.MessageType),
		Metadata:    json.RawMessage(model.Metadata),
		CreatedAt:   model.CreatedAt,
	}
}
